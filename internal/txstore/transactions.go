package txstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
)

const txColumns = `id, type, date, category, subcategory, amount, description,
	source, COALESCE(recurrence_id, 0), COALESCE(external_id, ''), account_iban`

// AddTransaction inserts a transaction and returns its id. When the record
// carries an external id that is already present, or is a generated
// occurrence already materialized for its definition and date, the existing
// row wins: the second return value is false and the existing id is
// returned.
func (s *Store) AddTransaction(ctx context.Context, tx *models.Transaction) (int64, bool, error) {
	if err := tx.Validate(time.Now()); err != nil {
		return 0, false, err
	}

	var externalID interface{}
	if tx.ExternalID != "" {
		externalID = tx.ExternalID
	}
	var recurrenceID interface{}
	if tx.RecurrenceID != 0 {
		recurrenceID = tx.RecurrenceID
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(type, date, category, subcategory, amount, description, source,
			 recurrence_id, external_id, account_iban)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		string(tx.Type), dateutils.ToISODate(tx.Date), tx.Category, tx.Subcategory,
		tx.Amount.StringFixed(2), tx.Description, string(tx.Source),
		recurrenceID, externalID, tx.AccountIBAN)
	if err != nil {
		return 0, false, fmt.Errorf("inserting transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		id, err := s.findDuplicate(ctx, tx)
		if err != nil {
			return 0, false, err
		}
		s.log.Debug("duplicate transaction skipped",
			logging.Field{Key: "external_id", Value: tx.ExternalID},
			logging.Field{Key: logging.FieldDate, Value: dateutils.ToISODate(tx.Date)})
		tx.ID = id
		return id, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	tx.ID = id
	return id, true, nil
}

// findDuplicate locates the row that made an insert a no-op.
func (s *Store) findDuplicate(ctx context.Context, tx *models.Transaction) (int64, error) {
	var id int64
	if tx.ExternalID != "" {
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM transactions WHERE external_id = ?`, tx.ExternalID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM transactions
		WHERE source = ? AND recurrence_id = ? AND date = ? AND category = ? AND subcategory = ?`,
		string(models.SourceGenerated), tx.RecurrenceID, dateutils.ToISODate(tx.Date),
		tx.Category, tx.Subcategory).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("locating duplicate transaction: %w", err)
	}
	return id, nil
}

// GetTransaction fetches one transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %d not found", id)
	}
	return tx, err
}

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	From         time.Time
	To           time.Time
	Category     string
	Type         models.TransactionType
	Source       models.Source
	RecurrenceID int64
}

// ListTransactions returns matching transactions ordered by date then id.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]*models.Transaction, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, dateutils.ToISODate(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, dateutils.ToISODate(f.To))
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, models.NormalizeCategory(f.Category))
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.RecurrenceID != 0 {
		conds = append(conds, "recurrence_id = ?")
		args = append(args, f.RecurrenceID)
	}

	query := `SELECT ` + txColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// UpdateTransactionCategory rewrites the category fields of one row, used
// by manual recategorization.
func (s *Store) UpdateTransactionCategory(ctx context.Context, id int64, category, subcategory string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET category = ?, subcategory = ? WHERE id = ?`,
		models.NormalizeCategory(category), strings.TrimSpace(subcategory), id)
	if err != nil {
		return fmt.Errorf("updating transaction %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	return nil
}

// DeleteTransaction removes a transaction. Attachment metadata cascades;
// physical files are the attachment service's business.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx        models.Transaction
		typ, src  string
		dateStr   string
		amountStr string
	)
	err := row.Scan(&tx.ID, &typ, &dateStr, &tx.Category, &tx.Subcategory,
		&amountStr, &tx.Description, &src, &tx.RecurrenceID, &tx.ExternalID, &tx.AccountIBAN)
	if err != nil {
		return nil, err
	}

	tx.Type = models.TransactionType(typ)
	tx.Source = models.Source(src)
	if tx.Date, err = time.Parse(dateutils.DateLayoutISO, dateStr); err != nil {
		return nil, fmt.Errorf("corrupt date %q in transaction %d: %w", dateStr, tx.ID, err)
	}
	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("corrupt amount %q in transaction %d: %w", amountStr, tx.ID, err)
	}
	return &tx, nil
}
