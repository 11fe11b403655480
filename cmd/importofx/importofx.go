// Package importofx imports OFX bank statements into the transaction store.
package importofx

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlaurent/scanledger/cmd/root"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/ofxparser"
)

var categorizeRows bool

// Cmd represents the import-ofx command.
var Cmd = &cobra.Command{
	Use:   "import-ofx <file>",
	Short: "Import an OFX bank statement",
	Long: `Imports an OFX 2.x statement. Each statement line's FITID becomes the
transaction's external id, making re-imports idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&categorizeRows, "categorize", "c", false, "Categorize imported lines")
}

func importFunc(cmd *cobra.Command, args []string) error {
	st, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	transactions, err := ofxparser.NewParser(root.Log).ParseFile(args[0])
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
			return fmt.Errorf("importing entry %s: %w", tx.ExternalID, err)
		}
		if fresh {
			inserted++
		} else {
			skipped++
		}
	}

	root.Log.Info("OFX import complete",
		logging.Field{Key: logging.FieldFile, Value: args[0]},
		logging.Field{Key: logging.FieldCount, Value: inserted},
		logging.Field{Key: "skipped", Value: skipped})
	return nil
}
