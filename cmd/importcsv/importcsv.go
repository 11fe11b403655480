// Package importcsv imports bank CSV exports into the transaction store.
package importcsv

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlaurent/scanledger/cmd/root"
	"mlaurent/scanledger/internal/csvparser"
	"mlaurent/scanledger/internal/logging"
)

var categorizeRows bool

// Cmd represents the import-csv command.
var Cmd = &cobra.Command{
	Use:   "import-csv <file>",
	Short: "Import a bank CSV export",
	Long: `Imports a CSV bank export. Rows get a content-derived external id,
so importing the same file twice only inserts new rows.`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&categorizeRows, "categorize", "c", false, "Categorize rows without a category")
}

func importFunc(cmd *cobra.Command, args []string) error {
	st, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	transactions, err := csvparser.NewParser(root.Log).ParseFile(args[0])
	if err != nil {
		return err
	}

	cat := root.BuildCategorizer(ctx, root.Vocabulary())

	var inserted, skipped int
	for i := range transactions {
		tx := &transactions[i]
		if categorizeRows && tx.Category == "" {
			cat.Categorize(ctx, tx, "")
		}
		_, fresh, err := st.AddTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("importing row for %s: %w", tx.Description, err)
		}
		if fresh {
			inserted++
		} else {
			skipped++
		}
	}

	root.Log.Info("CSV import complete",
		logging.Field{Key: logging.FieldFile, Value: args[0]},
		logging.Field{Key: logging.FieldCount, Value: inserted},
		logging.Field{Key: "skipped", Value: skipped})
	return nil
}
