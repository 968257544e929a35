package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/logger"
	"github.com/sevigo/diff-warden/internal/shell"
)

var (
	configFile string
	verbosity  int
	theme      string

	cfg       *config.Config
	appLogger *slog.Logger
)

// flagKeys maps persistent flags onto configuration keys so that flags, DW_*
// environment variables and config.yaml share one namespace.
var flagKeys = map[string]string{
	"llm":                    "ai.llm_provider",
	"llm-model":              "ai.generator_model",
	"llm-api-key":            "ai.gemini_api_key",
	"llm-rate-limit":         "ai.rate_limit",
	"ollama-base-uri":        "ai.ollama_host",
	"disable-tools":          "ai.disable_tools",
	"disable-caching":        "scan.disable_caching",
	"cache-folder":           "scan.cache_dir",
	"max-line-length":        "scan.max_line_length",
	"skip-line-length-check": "scan.skip_line_length_check",
	"include":                "scan.include",
	"exclude":                "scan.exclude",
	"analysts":               "scan.analysts",
	"csv":                    "output.csv",
	"csv-path":               "output.csv_path",
	"web":                    "output.web",
	"web-host":               "output.web_host",
	"web-port":               "output.web_port",
	"interactive":            "output.interactive",
	"ci":                     "output.ci",
	"github-token":           "github.token",
}

var rootCmd = &cobra.Command{
	Use:   "diffwarden",
	Short: "diffwarden reviews the changed lines of a diff with an LLM.",
	Long: `diffwarden sends every changed file of a diff to an LLM analyst, anchors the
findings on the changed lines and publishes them as a review: on the terminal
for local directories and git repositories, or on the pull request for GitHub.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./config.yaml)")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.StringVar(&theme, "theme", string(shell.ThemeCyan), "Interactive shell theme")

	flags.String("llm", "", "LLM provider: ollama, gemini or faike")
	flags.String("llm-model", "", "Model name (defaults per provider)")
	flags.String("llm-api-key", "", "API key for the gemini provider")
	flags.Int("llm-rate-limit", 10, "Maximum concurrent LLM requests")
	flags.String("ollama-base-uri", "", "Ollama server URL")
	flags.Bool("disable-tools", false, "Do not let the model read whole files")
	flags.Bool("disable-caching", false, "Do not read or write the findings cache")
	flags.String("cache-folder", "", "Findings cache directory")
	flags.Int("max-line-length", 1000, "Skip files with a line longer than this")
	flags.Bool("skip-line-length-check", false, "Analyze files regardless of line length")
	flags.StringSlice("include", nil, "Additional include patterns (gitignore syntax)")
	flags.StringSlice("exclude", nil, "Additional exclude patterns (gitignore syntax)")
	flags.StringSlice("analysts", nil, "Analysts to run: security, codequality, typo")
	flags.Bool("csv", false, "Write the findings to a CSV file")
	flags.String("csv-path", "results.csv", "CSV output path")
	flags.Bool("web", false, "Serve the findings dashboard after the scan")
	flags.String("web-host", "127.0.0.1", "Dashboard host")
	flags.Int("web-port", 8080, "Dashboard port")
	flags.Bool("interactive", false, "Triage the findings in an interactive shell before publishing")
	flags.Bool("ci", false, "Exit with status 1 when findings remain")
}

// loadConfig runs before every subcommand.
func loadConfig(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(configFile)
	if err != nil {
		return err
	}
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	if verbosity > 0 {
		v.Set("logging.level", logger.LevelFromVerbosity(verbosity))
	}

	if cfg, err = config.Load(v); err != nil {
		return err
	}
	if !slices.Contains(shell.Themes(), shell.ThemeName(theme)) {
		return fmt.Errorf("unknown theme %q (available: %v)", theme, shell.Themes())
	}
	appLogger = logger.NewLogger(cfg.LoggerConfig, nil)
	return nil
}
