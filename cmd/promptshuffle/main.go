package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"promptshuffle/internal/config"
	"promptshuffle/internal/generator"
	"promptshuffle/internal/syntax"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Generation flags
	count          int
	seed           int64
	seeds          []int64
	templateFile   string
	startMarker    string
	endMarker      string
	separator      string
	priority       bool
	priorityMarker string
	seedScope      string

	// Logger
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promptshuffle [template]",
	Short: "promptshuffle - deterministic prompt section shuffler",
	Long: `promptshuffle reorders delimiter-marked sections of prompt templates.

Sections are marked with configurable delimiters (default: $[...]$). Section
content is split on the separator, with parenthesized groups kept intact, and
the pieces are permuted with a seeded random source. LoRA and hypernetwork
tags pass through untouched.

Examples:
  promptshuffle --seed 42 'a portrait of $[a cat, wearing a hat, in the park]$'
  promptshuffle -n 4 --seeds 1,2,3,4 -f template.txt`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = logLevel
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runShuffle,
}

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "promptshuffle.yaml", "path to YAML config file")

	rootCmd.Flags().IntVarP(&count, "count", "n", 0, "number of candidates to generate (default from config)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "default seed for candidates without an explicit one")
	rootCmd.Flags().Int64SliceVar(&seeds, "seeds", nil, "per-candidate seeds, one per candidate")
	rootCmd.Flags().StringVarP(&templateFile, "file", "f", "", "read the template from a file ('-' for stdin)")
	rootCmd.Flags().StringVar(&startMarker, "start", "", "section start marker (default $[)")
	rootCmd.Flags().StringVar(&endMarker, "end", "", "section end marker (default ]$)")
	rootCmd.Flags().StringVar(&separator, "separator", "", "token separator character (default ,)")
	rootCmd.Flags().BoolVar(&priority, "priority", false, "enable priority stratification")
	rootCmd.Flags().StringVar(&priorityMarker, "priority-marker", "", "priority marker character (default §)")
	rootCmd.Flags().StringVar(&seedScope, "seed-scope", "", "seed scope: section or candidate")

	rootCmd.AddCommand(configCmd)
}

func runShuffle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	template, err := readTemplate(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(template) == "" {
		return fmt.Errorf("no template given: pass it as an argument, via --file, or on stdin")
	}

	opts, err := cfg.Shuffle.Options()
	if err != nil {
		return err
	}
	opts.Syntax = syntax.NewExtractor()

	gen, err := generator.NewShuffleGenerator(
		generator.EchoGenerator{}, opts, logger, cfg.Generator.MaxParallel)
	if err != nil {
		return err
	}

	n := cfg.Generator.Count
	if count > 0 {
		n = count
	}

	runID := uuid.NewString()
	logger.Debug("generating candidates",
		zap.String("run_id", runID),
		zap.Int("count", n),
		zap.String("seed_scope", string(opts.SeedScope)))

	results, err := gen.Generate(template, n, generator.Options{Seeds: seeds})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if len(results) == 0 {
		logger.Debug("upstream produced no candidates", zap.String("run_id", runID))
		return nil
	}

	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	return nil
}

// loadConfig reads the YAML config and layers changed CLI flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("start") {
		cfg.Shuffle.StartMarker = startMarker
	}
	if flags.Changed("end") {
		cfg.Shuffle.EndMarker = endMarker
	}
	if flags.Changed("separator") {
		cfg.Shuffle.Separator = separator
	}
	if flags.Changed("priority") {
		cfg.Shuffle.Priority = priority
	}
	if flags.Changed("priority-marker") {
		cfg.Shuffle.PriorityMarker = priorityMarker
	}
	if flags.Changed("seed-scope") {
		cfg.Shuffle.SeedScope = seedScope
	}
	if flags.Changed("seed") {
		s := seed
		cfg.Shuffle.DefaultSeed = &s
	}
	if verbose {
		cfg.Logging.Verbose = true
	}
	if cfg.Logging.Verbose {
		logLevel.SetLevel(zapcore.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readTemplate resolves the template text from args, file, or stdin.
func readTemplate(args []string) (string, error) {
	if templateFile == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
