package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/florinutz/docsink/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DOCSINK"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docsink",
	Short: "Resolve and validate per-destination document sink pipelines",
	Long: `docsink reads the properties of a record-to-document sink and builds, for
every declared destination, the processing stage chain, the document id
strategy, the write model strategies, the rate limit policy and the optional
CDC handler. Properties come from a config file, DOCSINK_* environment
variables and --set flags, in increasing precedence.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	SilenceUsage: true,
}

// Execute is called by main.go and is the entry point for the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./docsink.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text, json")
	rootCmd.PersistentFlags().StringArray("set", nil, "property override as key=value, may be repeated")

	mustBindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docsink")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only warn if a config file was explicitly specified but could not be read.
			if cfgFile != "" {
				fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
			}
		}
	}
}

// loadProperties reads the sink properties. Property names are dotted, so
// they are read with a separate viper instance that does not split keys.
func loadProperties(cmd *cobra.Command) (config.Properties, error) {
	pv := config.NewViper()
	if cfgFile != "" {
		pv.SetConfigFile(cfgFile)
	} else {
		pv.SetConfigName("docsink")
		pv.SetConfigType("yaml")
		pv.AddConfigPath(".")
	}
	if err := pv.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	pv.SetEnvPrefix(envPrefix)
	pv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, spec := range config.Schema() {
		env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(spec.Name, ".", "_"))
		// Binding an unset variable would shadow the option default.
		if _, ok := os.LookupEnv(env); ok {
			if err := pv.BindEnv(spec.Name, env); err != nil {
				return nil, fmt.Errorf("bind env %s: %w", env, err)
			}
		}
	}

	props := config.FromViper(pv)

	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", kv)
		}
		props[strings.TrimSpace(k)] = v
	}
	return props, nil
}

func setupLogger() error {
	level := viper.GetString("log_level")
	format := viper.GetString("log_format")

	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %q (expected debug, info, warn, error)", level)
	}

	opts := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format: %q (expected text, json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("viper.BindPFlag(%q): %v", key, err))
	}
}
