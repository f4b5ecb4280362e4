package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/florinutz/docsink"
	"github.com/florinutz/docsink/config"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type validationResult struct {
	component string
	status    string
	message   string
	duration  time.Duration
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate sink properties without building the destinations",
	Long: `Checks every recognised option, including destination overrides, and reports
pass/fail status per option. With --ping the connection URI is also dialed.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	f := validateCmd.Flags()
	f.Bool("ping", false, "connect to MongoDB and ping the primary")
	f.Duration("ping-timeout", 5*time.Second, "timeout for --ping")
}

func runValidate(cmd *cobra.Command, args []string) error {
	props, err := loadProperties(cmd)
	if err != nil {
		return err
	}

	results, hasFailure := validateOptions(props)

	if ping, _ := cmd.Flags().GetBool("ping"); ping {
		timeout, _ := cmd.Flags().GetDuration("ping-timeout")
		r := validateDatabase(cmd.Context(), props, timeout)
		results = append(results, r)
		if r.status == "FAIL" {
			hasFailure = true
		}
	} else {
		results = append(results, validationResult{
			component: "database",
			status:    "SKIP",
			message:   "connectivity not checked (use --ping)",
		})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tDURATION\tMESSAGE")
	_, _ = fmt.Fprintln(w, "---------\t------\t--------\t-------")
	for _, r := range results {
		dur := "-"
		if r.duration > 0 {
			dur = r.duration.Truncate(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.component, r.status, dur, r.message)
	}
	_ = w.Flush()

	if hasFailure {
		return fmt.Errorf("validation failed")
	}
	return nil
}

// validateOptions returns one row per declared option, in schema order. An
// option with errors gets one FAIL row per error.
func validateOptions(props config.Properties) ([]validationResult, bool) {
	byOption := make(map[string][]config.FieldError)
	errs := docsink.ValidateAll(props)
	for _, e := range errs {
		byOption[e.Option] = append(byOption[e.Option], e)
	}

	var results []validationResult
	for _, spec := range config.Schema() {
		fails := byOption[spec.Name]
		if len(fails) == 0 {
			results = append(results, validationResult{
				component: spec.Name,
				status:    "OK",
			})
			continue
		}
		for _, e := range fails {
			component := spec.Name
			if e.Destination != "" {
				component += "." + e.Destination
			}
			results = append(results, validationResult{
				component: component,
				status:    "FAIL",
				message:   e.Message,
			})
		}
	}
	return results, len(errs) > 0
}

func validateDatabase(ctx context.Context, props config.Properties, timeout time.Duration) validationResult {
	start := time.Now()
	uri, err := config.New(props).String(config.ConnectionURI, config.DefaultDestination)
	if err != nil {
		return validationResult{component: "database", status: "FAIL", message: err.Error()}
	}

	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return validationResult{
			component: "database",
			status:    "FAIL",
			message:   fmt.Sprintf("connect: %s", err),
			duration:  time.Since(start),
		}
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		return validationResult{
			component: "database",
			status:    "FAIL",
			message:   fmt.Sprintf("ping: %s", err),
			duration:  time.Since(start),
		}
	}

	return validationResult{
		component: "database",
		status:    "OK",
		message:   "connected",
		duration:  time.Since(start),
	}
}
