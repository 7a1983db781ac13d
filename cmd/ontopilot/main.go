package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stuckyb/ontobuilder/internal/build"
	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/search"
)

var (
	// Global flags
	configPath   string
	verbose      bool
	mergeImports bool
	reason       bool
	releaseDate  string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ontopilot",
	Short: "ontopilot - OWL ontology project build tool",
	Long: `ontopilot manages an OWL ontology project: it compiles the ontology from a
base document plus tabular term descriptions, builds import modules extracted
from external ontologies, adds inferred axioms with an EL-style reasoner,
checks logical consistency and coherence, and searches entity labels and
synonyms.

A project is described by a project.yaml file; see the init command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig loads the project config and initializes the categorized file
// logging from its logging section.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(cfg.ProjectDir(), cfg.Path()); err != nil {
		logger.Warn("file logging unavailable", zap.Error(err))
	}
	return cfg, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runTarget runs one build target, honoring out-of-date detection.
func runTarget(ctx context.Context, target build.Target) error {
	required, err := build.BuildRequired(target)
	if err != nil {
		return err
	}
	if !required {
		fmt.Printf("Build target %q is already up to date.\n", target.Name())
		return nil
	}
	_, err = build.NewRunner().Run(ctx, target)
	return err
}

var initCmd = &cobra.Command{
	Use:   "init [ontology file name]",
	Short: "Initialize a new ontology project in the current directory",
	Long: `Creates a new ontology project: project.yaml, the source directory layout,
an empty base ontology document, and a starter terms file. The argument is
the file name of the ontology to build, e.g. "plants.owl".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		target := build.NewInitTarget(dir, args[0])
		if _, err := build.NewRunner().Run(ctx, target); err != nil {
			return err
		}
		fmt.Printf("Initialized new ontology project for %s.\n", args[0])
		return nil
	},
}

var makeCmd = &cobra.Command{
	Use:   "make [imports|ontology|release]",
	Short: "Run a build task",
	Long: `Runs one build task:

  imports   build the project's import modules
  ontology  compile the ontology from the base document and term tables
  release   produce a dated release of the compiled ontology

With no argument the ontology task runs. The --merge-imports and --reason
flags alter the ontology and release tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		target, err := build.GetTarget(cfg, "make", arg, targetFlags())
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return runTarget(ctx, target)
	},
}

var errorCheckCmd = &cobra.Command{
	Use:   "errorcheck",
	Short: "Check the ontology for consistency and coherence",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		products, err := build.NewRunner().Run(ctx, build.NewErrorCheckTarget(cfg))
		if err != nil {
			return err
		}
		report, ok := products["error report"].(*build.Report)
		if !ok {
			return fmt.Errorf("the error check produced no report")
		}
		fmt.Println(report)
		if !report.OK() {
			return fmt.Errorf("the ontology contains logical errors")
		}
		return nil
	},
}

var updateBaseCmd = &cobra.Command{
	Use:   "update_base",
	Short: "Synchronize the base ontology's import declarations",
	Long: `Rewrites the import declarations of the base ontology so they match the
project's imported-ontologies table, adding declarations for new import
modules and removing declarations for modules no longer listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return runTarget(ctx, build.NewUpdateBaseTarget(cfg))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search entity labels and synonyms",
	Long: `Compiles the ontology if needed and searches its labels and synonyms.
Matches are ranked: exact label, exact synonym, all query words matching by
stem, then partial matches. The index is cached in the build directory and
reused while the compiled ontology is unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		target := build.NewOntologyTarget(cfg, false, false)
		products, err := build.NewRunner().Run(ctx, target)
		if err != nil {
			return err
		}
		ontPath, _ := products["ontology file"].(string)
		ont, _ := products["ontology"].(*owl.Ontology)

		ix, err := cachedIndex(cfg, ontPath, ont)
		if err != nil {
			return err
		}

		query := ""
		for i, arg := range args {
			if i > 0 {
				query += " "
			}
			query += arg
		}
		matches := ix.Search(query)
		if len(matches) == 0 {
			fmt.Printf("No entities match %q.\n", query)
			return nil
		}
		for _, m := range matches {
			label := m.Label
			if label == "" {
				label = "(no label)"
			}
			fmt.Printf("%-12s %s  %s", m.Rank, m.IRI, label)
			if m.Text != m.Label {
				fmt.Printf("  [%s]", m.Text)
			}
			fmt.Println()
		}
		return nil
	},
}

// cachedIndex loads the persisted search index for the compiled ontology, or
// builds and persists a fresh one when the ontology changed.
func cachedIndex(cfg *config.Config, ontPath string, ont *owl.Ontology) (*search.Index, error) {
	info, err := os.Stat(ontPath)
	if err != nil {
		return nil, err
	}
	store, err := search.OpenStore(filepath.Join(cfg.BuildDirPath(), "search_index.db"))
	if err != nil {
		logger.Warn("search index cache unavailable", zap.Error(err))
		return search.Build(ont), nil
	}
	defer store.Close()

	ix, err := store.LoadIndex(ontPath, info.ModTime())
	if err != nil {
		return nil, err
	}
	if ix != nil {
		return ix, nil
	}
	ix = search.Build(ont)
	if err := store.SaveIndex(ontPath, info.ModTime(), ix); err != nil {
		logger.Warn("could not persist search index", zap.Error(err))
	}
	return ix, nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the ontology whenever project sources change",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		rebuild := func() error {
			target := build.NewOntologyTarget(cfg, mergeImports, reason)
			if err := runTarget(ctx, target); err != nil {
				return err
			}
			return nil
		}
		// Build once up front so the watcher starts from a current state.
		if err := rebuild(); err != nil {
			logger.Error("initial build failed", zap.Error(err))
		}
		err = build.Watch(ctx, cfg, rebuild)
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

func targetFlags() build.TargetFlags {
	return build.TargetFlags{
		MergeImports: mergeImports,
		Reason:       reason,
		ReleaseDate:  releaseDate,
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "project.yaml", "Project configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&mergeImports, "merge-imports", false, "Merge import modules into the compiled ontology")
	rootCmd.PersistentFlags().BoolVar(&reason, "reason", false, "Add inferred axioms to the compiled ontology")
	rootCmd.PersistentFlags().StringVar(&releaseDate, "release-date", "", "Release date (YYYY-MM-DD, default today)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(errorCheckCmd)
	rootCmd.AddCommand(updateBaseCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
