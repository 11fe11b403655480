package txstore

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/models"
)

const schedColumns = `id, recurrence_id, date, amount, category, subcategory, type, description`

// UpsertScheduled records a future occurrence. The (recurrence, date) pair
// is unique; re-syncing the horizon is idempotent. Returns true when a new
// row was created.
func (s *Store) UpsertScheduled(ctx context.Context, o *models.Occurrence) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (recurrence_id, date, amount, category, subcategory, type, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(recurrence_id, date) DO NOTHING`,
		o.RecurrenceID, dateutils.ToISODate(o.Date), o.Amount.StringFixed(2),
		o.Category, o.Subcategory, string(o.Type), o.Description)
	if err != nil {
		return false, fmt.Errorf("inserting schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		if id, err := res.LastInsertId(); err == nil {
			o.ID = id
		}
	}
	return n > 0, nil
}

// ListScheduled returns pending occurrences dated on or before until,
// ordered by date. A zero until returns everything.
func (s *Store) ListScheduled(ctx context.Context, until time.Time) ([]*models.Occurrence, error) {
	query := `SELECT ` + schedColumns + ` FROM schedules`
	var args []interface{}
	if !until.IsZero() {
		query += ` WHERE date <= ?`
		args = append(args, dateutils.ToISODate(until))
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var out []*models.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteScheduled removes one pending occurrence, typically after it has
// been promoted to a real transaction.
func (s *Store) DeleteScheduled(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting schedule %d: %w", id, err)
	}
	return nil
}

// DeleteSchedulesFor clears all pending occurrences of one definition, used
// when a definition is rewritten and its horizon must be regenerated.
func (s *Store) DeleteSchedulesFor(ctx context.Context, recurrenceID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM schedules WHERE recurrence_id = ?`, recurrenceID)
	if err != nil {
		return 0, fmt.Errorf("clearing schedules for recurrence %d: %w", recurrenceID, err)
	}
	return res.RowsAffected()
}

// DeleteSchedulesBefore drops stale pending occurrences dated before the
// cutoff without materializing them.
func (s *Store) DeleteSchedulesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM schedules WHERE date < ?`, dateutils.ToISODate(cutoff))
	if err != nil {
		return 0, fmt.Errorf("clearing stale schedules: %w", err)
	}
	return res.RowsAffected()
}

func scanOccurrence(row rowScanner) (*models.Occurrence, error) {
	var (
		o         models.Occurrence
		dateStr   string
		amountStr string
		typ       string
	)
	err := row.Scan(&o.ID, &o.RecurrenceID, &dateStr, &amountStr,
		&o.Category, &o.Subcategory, &typ, &o.Description)
	if err != nil {
		return nil, err
	}

	o.Type = models.TransactionType(typ)
	if o.Date, err = time.Parse(dateutils.DateLayoutISO, dateStr); err != nil {
		return nil, fmt.Errorf("corrupt date %q in schedule %d: %w", dateStr, o.ID, err)
	}
	if o.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("corrupt amount %q in schedule %d: %w", amountStr, o.ID, err)
	}
	return &o, nil
}
