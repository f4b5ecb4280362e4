package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/florinutz/docsink"
	"github.com/florinutz/docsink/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var describeCmd = &cobra.Command{
	Use:   "describe [destination]",
	Short: "Build the destinations and print what each resolved to",
	Long: `Builds every declared destination from the current properties and prints
its collection, stage chain, id strategy, write model and rate limit settings.
A destination argument restricts the output to that destination.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringP("output", "o", "text", "output format: text, yaml, json")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")

	props, err := loadProperties(cmd)
	if err != nil {
		return err
	}
	sink, err := docsink.New(config.New(props), docsink.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	infos, err := sink.Describe()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		infos = filterDestination(infos, args[0])
		if len(infos) == 0 {
			return fmt.Errorf("destination %q not declared in %s", args[0], config.Collections)
		}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(infos); err != nil {
			return err
		}
		return enc.Close()
	case "text":
	default:
		return fmt.Errorf("unknown output format: %q (expected text, yaml, json)", format)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DESTINATION\tCOLLECTION\tSTAGES\tID STRATEGY\tWRITE MODEL\tDELETE\tCDC\tRATE LIMIT")
	_, _ = fmt.Fprintln(w, "-----------\t----------\t------\t-----------\t-----------\t------\t---\t----------")
	for _, d := range infos {
		collection := d.Collection
		if collection == "" {
			collection = "-"
		}
		handler := d.CDCHandler
		if handler == "" {
			handler = "-"
		}
		rate := "-"
		if d.RateLimitEveryN > 0 {
			rate = fmt.Sprintf("%dms every %d", d.RateLimitTimeoutMs, d.RateLimitEveryN)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			d.Name, collection, strings.Join(d.Stages, ","), d.IDStrategy, d.WriteModel, d.DeleteOnNull, handler, rate)
	}
	return w.Flush()
}

func filterDestination(infos []docsink.DestinationInfo, name string) []docsink.DestinationInfo {
	for _, d := range infos {
		if d.Name == name {
			return []docsink.DestinationInfo{d}
		}
	}
	return nil
}
