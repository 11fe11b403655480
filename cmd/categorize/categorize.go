// Package categorize recategorizes stored transactions or tests the
// categorizer against an ad-hoc description.
package categorize

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mlaurent/scanledger/cmd/root"
	"mlaurent/scanledger/internal/models"
)

var (
	txID        int64
	description string
	amountStr   string
)

// Cmd represents the categorize command.
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a stored transaction or test a description",
	Long: `With --id, recategorizes the stored transaction and saves the result.
With --description, runs the categorizer and prints the suggestion without
touching the store.`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().Int64VarP(&txID, "id", "i", 0, "Transaction id to recategorize")
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Ad-hoc description to categorize")
	Cmd.Flags().StringVarP(&amountStr, "amount", "a", "", "Amount for the ad-hoc description (optional)")
	Cmd.MarkFlagsOneRequired("id", "description")
	Cmd.MarkFlagsMutuallyExclusive("id", "description")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cat := root.BuildCategorizer(ctx, root.Vocabulary())

	if txID != 0 {
		st, err := root.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		tx, err := st.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		cat.Categorize(ctx, tx, "")
		if err := st.UpdateTransactionCategory(ctx, tx.ID, tx.Category, tx.Subcategory); err != nil {
			return err
		}
		fmt.Printf("Transaction #%d: %s / %s\n", tx.ID, tx.Category, tx.Subcategory)
		return nil
	}

	tx := &models.Transaction{
		Type:        models.TypeExpense,
		Date:        time.Now(),
		Description: description,
		Source:      models.SourceManual,
	}
	if amountStr != "" {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", amountStr, err)
		}
		tx.Amount = amount
	}

	cat.Categorize(ctx, tx, "")
	fmt.Printf("Category: %s\nSubcategory: %s\nDescription: %s\n",
		tx.Category, tx.Subcategory, tx.Description)
	return nil
}
