// Package recur manages recurring transaction definitions and drives
// occurrence generation.
package recur

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mlaurent/scanledger/cmd/root"
	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/recurrence"
	"mlaurent/scanledger/internal/txstore"
)

// Cmd represents the recur command group.
var Cmd = &cobra.Command{
	Use:   "recur",
	Short: "Manage recurring transactions",
	Long:  `Defines recurring transactions and materializes their occurrences.`,
}

var (
	addType      string
	addCategory  string
	addSubcat    string
	addAmount    string
	addFrequency string
	addStart     string
	addEnd       string
	addDesc      string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a recurring definition",
	RunE:  addFunc,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active definitions with their projected costs",
	RunE:  listFunc,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Materialize all past-due occurrences as transactions",
	RunE:  withEngine(func(cmd *cobra.Command, e *recurrence.Engine) error {
		report, err := e.BackfillAll(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Backfill: %d definitions, %d created, %d skipped, %d failed\n",
			report.Definitions, report.Created, report.Skipped, report.Failed)
		return nil
	}),
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Promote due scheduled occurrences and refill the future horizon",
	RunE: withEngine(func(cmd *cobra.Command, e *recurrence.Engine) error {
		report, err := e.SyncUpcoming(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Sync: %d promoted, %d scheduled\n", report.Promoted, report.Scheduled)
		return nil
	}),
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Preview upcoming occurrences without persisting them",
	RunE: withEngine(func(cmd *cobra.Command, e *recurrence.Engine) error {
		occs, err := e.ProjectFuture(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		for _, o := range occs {
			fmt.Printf("%s  %-10s  %8s  %s\n",
				dateutils.ToISODate(o.Date), o.Type, o.Amount.StringFixed(2), o.Category)
		}
		fmt.Printf("%d upcoming occurrences\n", len(occs))
		return nil
	}),
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Archive definitions whose end date has passed",
	RunE: withEngine(func(cmd *cobra.Command, e *recurrence.Engine) error {
		n, err := e.CleanupExpired(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Archived %d expired definitions\n", n)
		return nil
	}),
}

func init() {
	addCmd.Flags().StringVarP(&addType, "type", "t", "Expense", "Transaction type")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category")
	addCmd.Flags().StringVar(&addSubcat, "subcategory", "", "Subcategory")
	addCmd.Flags().StringVarP(&addAmount, "amount", "a", "", "Amount per occurrence")
	addCmd.Flags().StringVarP(&addFrequency, "frequency", "f", "", "Cadence (daily, weekly, monthly, quarterly, semiannual, annual)")
	addCmd.Flags().StringVarP(&addStart, "start", "s", "", "Start date (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&addEnd, "end", "e", "", "End date (YYYY-MM-DD, optional)")
	addCmd.Flags().StringVar(&addDesc, "description", "", "Description")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("frequency")
	_ = addCmd.MarkFlagRequired("start")

	Cmd.AddCommand(addCmd, listCmd, backfillCmd, syncCmd, projectCmd, cleanupCmd)
}

func withEngine(fn func(cmd *cobra.Command, e *recurrence.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, err := root.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()
		return fn(cmd, recurrence.NewEngine(st, root.Cfg.Recurrence.HorizonMonths, root.Log))
	}
}

func addFunc(cmd *cobra.Command, args []string) error {
	st, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	amount, err := decimal.NewFromString(addAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", addAmount, err)
	}
	start, err := dateutils.ParseDateString(addStart)
	if err != nil {
		return err
	}

	def := &models.RecurringDefinition{
		Type:        models.TransactionType(addType),
		Category:    addCategory,
		Subcategory: addSubcat,
		Amount:      amount,
		Frequency:   addFrequency,
		StartDate:   start,
		Description: addDesc,
	}
	if addEnd != "" {
		end, err := dateutils.ParseDateString(addEnd)
		if err != nil {
			return err
		}
		def.EndDate = &end
	}

	id, err := addRecurrence(cmd, st, def)
	if err != nil {
		return err
	}
	root.Log.Info("recurring definition added",
		logging.Field{Key: logging.FieldRecurrence, Value: id},
		logging.Field{Key: logging.FieldCategory, Value: def.Category},
		logging.Field{Key: logging.FieldFrequency, Value: def.Frequency})
	return nil
}

func addRecurrence(cmd *cobra.Command, st *txstore.Store, def *models.RecurringDefinition) (int64, error) {
	return st.AddRecurrence(cmd.Context(), def)
}

func listFunc(cmd *cobra.Command, args []string) error {
	st, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := recurrence.NewEngine(st, root.Cfg.Recurrence.HorizonMonths, root.Log)
	summary, err := engine.Summarize(cmd.Context())
	if err != nil {
		return err
	}

	for _, def := range summary.Definitions {
		end := "-"
		if def.EndDate != nil {
			end = dateutils.ToISODate(*def.EndDate)
		}
		fmt.Printf("#%-4d %-10s %-20s %10s  %-10s %s -> %s  (%s/mo)\n",
			def.ID, def.Type, def.Category, def.Amount.StringFixed(2),
			def.Frequency, dateutils.ToISODate(def.StartDate), end,
			def.MonthlyCost().StringFixed(2))
	}
	fmt.Printf("\nTotal cost: %s/month, %s/year\n",
		summary.MonthlyTotal.StringFixed(2), summary.AnnualTotal.StringFixed(2))
	return nil
}
