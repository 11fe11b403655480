// Package scan processes scanned receipts and PDF statements into
// transactions.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"mlaurent/scanledger/cmd/root"
	"mlaurent/scanledger/internal/attachments"
	"mlaurent/scanledger/internal/extractor"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/pipeline"
)

var (
	inputDir string
	workers  int
	failSafe bool
	attach   bool
)

// Cmd represents the scan command.
var Cmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Extract transactions from scanned receipts and PDF statements",
	Long: `Runs OCR or PDF text extraction on the given documents, parses the
amount and date, categorizes the result and stores the transactions.`,
	RunE: scanFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "Process every supported document in a directory")
	Cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count (0 = size from hardware)")
	Cmd.Flags().BoolVar(&failSafe, "fail-safe", false, "Process sequentially in submission order")
	Cmd.Flags().BoolVarP(&attach, "attach", "a", false, "File each document as an attachment of its transaction")
}

func scanFunc(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents to process; pass files or --dir")
	}

	st, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	categories := root.Vocabulary()
	cat := root.BuildCategorizer(ctx, categories)

	opts := pipeline.BatchOptions{
		Workers:        workers,
		MemoryPerJobGB: root.Cfg.Batch.MemoryPerJobGB,
		FailSafe:       failSafe || root.Cfg.Batch.FailSafe && !cmd.Flags().Changed("fail-safe"),
		Progress: func(file string, done, total int, elapsed time.Duration) {
			root.Log.Info("progress",
				logging.Field{Key: logging.FieldFile, Value: filepath.Base(file)},
				logging.Field{Key: "done", Value: fmt.Sprintf("%d/%d", done, total)},
				logging.Field{Key: logging.FieldDuration, Value: elapsed.Round(time.Millisecond)})
		},
	}

	batch := pipeline.NewBatch(root.PipelineFactory(st, cat, root.Patterns()), opts, root.Log)
	results, err := batch.Run(ctx, files)
	if err != nil {
		return err
	}

	var ok, failed int
	attacher := attachments.NewService(st, root.Cfg.Data.AttachmentDir, root.Log)
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		ok++
		if attach {
			if _, err := attacher.Attach(ctx, r.Tx.ID, r.File); err != nil {
				root.Log.WithError(err).Warn("could not file attachment",
					logging.Field{Key: logging.FieldFile, Value: r.File})
			}
		}
	}

	root.Log.Info("scan complete",
		logging.Field{Key: logging.FieldStatus, Value: string(batch.Status())},
		logging.Field{Key: logging.FieldCount, Value: ok},
		logging.Field{Key: "failed", Value: failed})
	if failed > 0 && ok == 0 {
		return fmt.Errorf("all %d documents failed", failed)
	}
	return nil
}

func collectFiles(args []string) ([]string, error) {
	files := append([]string{}, args...)
	if inputDir != "" {
		entries, err := os.ReadDir(inputDir)
		if err != nil {
			return nil, fmt.Errorf("reading input directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(inputDir, e.Name())
			if extractor.IsImage(path) || extractor.IsPDF(path) {
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
