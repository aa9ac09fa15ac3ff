package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X github.com/ppiankov/hiereval/internal/cli.version=..."
var version = "dev"

var (
	cfgFile string
	verbose bool
	noCache bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hiereval",
	Short: "Hiereval - hierarchical evaluation of product category predictions",
	Long: `Hiereval scores product category predictions against a dataset's
category taxonomy.

Besides the flat weighted and macro scores it reports hierarchical
precision, recall and F-beta: every label is expanded to the set of its
ancestors (excluding the root) before counting, so a prediction that lands
in the right branch earns partial credit.

Taxonomies are read from <data-dir>/raw/<dataset>/tree/tree_<dataset>.yaml
(or .yml/.json), or from an explicit --tree file.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Hiereval.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hiereval %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.hiereval/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&noCache, "no-cache", false, "disable the report cache")

	// Data and evaluation flags shared by every command
	flags.String("data-dir", "", "directory holding raw/<dataset>/tree/ (default: data)")
	flags.StringP("dataset", "d", "", "dataset whose taxonomy is used")
	flags.String("tree", "", "explicit taxonomy file, overrides --data-dir/--dataset")
	flags.String("encoder", "", "class list used to decode numeric class ids")
	flags.Float64("beta", 0, "beta of the hierarchical F-score (default: 1)")
	flags.Bool("ids", false, "prediction files hold encoder class ids instead of names")
	flags.Int("concurrency", 0, "number of concurrent workers (default: number of CPUs)")
	flags.String("output-dir", "", "output directory for reports")
	flags.String("prometheus-file", "", "also write scores in Prometheus textfile format")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")

	// Bind flags to viper
	bindings := map[string]string{
		"output.verbose":         "verbose",
		"data.data_dir":          "data-dir",
		"data.dataset":           "dataset",
		"data.tree_path":         "tree",
		"data.encoder_path":      "encoder",
		"evaluation.beta":        "beta",
		"input.ids":              "ids",
		"concurrency.workers":    "concurrency",
		"output.dir":             "output-dir",
		"output.prometheus_file": "prometheus-file",
		"log.level":              "log-level",
		"log.format":             "log-format",
	}
	for key, name := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".hiereval"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match HIEREVAL_* (HIEREVAL_DATA_DATASET -> data.dataset)
	viper.SetEnvPrefix("HIEREVAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
