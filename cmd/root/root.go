// Package root contains the root command and the shared wiring the
// subcommands build on.
package root

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"mlaurent/scanledger/internal/categorizer"
	"mlaurent/scanledger/internal/config"
	"mlaurent/scanledger/internal/extractor"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/pipeline"
	"mlaurent/scanledger/internal/store"
	"mlaurent/scanledger/internal/txstore"
)

var (
	// Log is the shared logger instance for commands.
	Log logging.Logger = logging.GetLogger()

	// Cfg is the loaded application configuration.
	Cfg *config.Config

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "scanledger",
		Short: "Extract, categorize and track financial transactions from scanned documents.",
		Long: `scanledger turns scanned receipts and PDF income statements into
categorized transactions, imports bank CSV and OFX exports, and keeps
recurring expenses materialized as they come due.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to scanledger!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			Cfg = config.GetConfig()

			level := Cfg.Log.Level
			if logLevelFlag != "" {
				level = logLevelFlag
			}
			Log = logging.NewLogrusAdapter(level, Cfg.Log.Format)
			logging.SetDefault(Log)
		},
	}

	logLevelFlag string
)

// Init registers persistent flags. Called once from main before Execute.
func Init() {
	Cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")
}

// OpenStore opens the configured transaction database.
func OpenStore() (*txstore.Store, error) {
	return txstore.Open(Cfg.Data.DatabaseFile, Log)
}

// Vocabulary returns the category store over the configured vocabulary
// file.
func Vocabulary() *store.CategoryStore {
	return store.NewCategoryStore("", Log)
}

// Patterns returns the pattern store with built-in defaults.
func Patterns() *store.PatternStore {
	return store.NewPatternStore("", Log)
}

// BuildCategorizer wires the AI categorizer from configuration. It returns
// nil when AI is disabled or the API key is missing, in which case keyword
// matching and the fallback still run inside the pipeline.
func BuildCategorizer(ctx context.Context, categories *store.CategoryStore) *categorizer.Categorizer {
	if !Cfg.AI.Enabled {
		return categorizer.New(nil, categories, 0, 0, Log)
	}

	client, err := categorizer.NewGeminiClient(ctx, Cfg.AI.APIKey, Cfg.AI.Model, Log)
	if err != nil {
		Log.WithError(err).Warn("AI categorization unavailable, continuing without it")
		return categorizer.New(nil, categories, 0, 0, Log)
	}
	return categorizer.New(client, categories,
		time.Duration(Cfg.AI.TimeoutSeconds)*time.Second, Cfg.AI.MaxRetries, Log)
}

// PipelineFactory builds per-worker pipelines over a shared store and
// categorizer. Each worker gets its own extractor engines.
func PipelineFactory(st *txstore.Store, cat *categorizer.Categorizer, patterns *store.PatternStore) pipeline.PipelineFactory {
	return func() *pipeline.Pipeline {
		router := &extractor.Router{
			OCR: extractor.NewOCRExtractor(Cfg.OCR.Binary, Cfg.OCR.Languages, Cfg.OCR.Preprocess, Log),
			PDF: extractor.NewPDFExtractor(Cfg.PDF.Binary, Cfg.PDF.Layout, Log),
		}
		return pipeline.New(router, patterns, cat, st, Log)
	}
}
