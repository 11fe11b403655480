package txstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/models"
)

const recColumns = `id, type, category, subcategory, amount, frequency,
	start_date, end_date, status, description, created_at, updated_at`

// AddRecurrence inserts a recurring definition and returns its id.
func (s *Store) AddRecurrence(ctx context.Context, r *models.RecurringDefinition) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	var endDate interface{}
	if r.EndDate != nil {
		endDate = dateutils.ToISODate(*r.EndDate)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recurrences
			(type, category, subcategory, amount, frequency, start_date, end_date, status, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.Type), r.Category, r.Subcategory, r.Amount.StringFixed(2),
		r.Frequency, dateutils.ToISODate(r.StartDate), endDate, r.Status, r.Description)
	if err != nil {
		return 0, fmt.Errorf("inserting recurrence: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

// GetRecurrence fetches one definition by id.
func (s *Store) GetRecurrence(ctx context.Context, id int64) (*models.RecurringDefinition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recColumns+` FROM recurrences WHERE id = ?`, id)
	r, err := scanRecurrence(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recurrence %d not found", id)
	}
	return r, err
}

// ListRecurrences returns definitions, optionally restricted to one status.
func (s *Store) ListRecurrences(ctx context.Context, status string) ([]*models.RecurringDefinition, error) {
	query := `SELECT ` + recColumns + ` FROM recurrences`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recurrences: %w", err)
	}
	defer rows.Close()

	var out []*models.RecurringDefinition
	for rows.Next() {
		r, err := scanRecurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRecurrence rewrites a definition in place and bumps updated_at.
func (s *Store) UpdateRecurrence(ctx context.Context, r *models.RecurringDefinition) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var endDate interface{}
	if r.EndDate != nil {
		endDate = dateutils.ToISODate(*r.EndDate)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE recurrences SET
			type = ?, category = ?, subcategory = ?, amount = ?, frequency = ?,
			start_date = ?, end_date = ?, status = ?, description = ?,
			updated_at = datetime('now')
		WHERE id = ?`,
		string(r.Type), r.Category, r.Subcategory, r.Amount.StringFixed(2),
		r.Frequency, dateutils.ToISODate(r.StartDate), endDate, r.Status,
		r.Description, r.ID)
	if err != nil {
		return fmt.Errorf("updating recurrence %d: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recurrence %d not found", r.ID)
	}
	return nil
}

// ArchiveRecurrence flips a definition to inactive, stopping generation
// while keeping the history it produced.
func (s *Store) ArchiveRecurrence(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recurrences SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		models.StatusInactive, id)
	if err != nil {
		return fmt.Errorf("archiving recurrence %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recurrence %d not found", id)
	}
	return nil
}

// DeleteRecurrence removes a definition. Its pending schedule rows cascade;
// transactions it generated survive with the backlink nulled.
func (s *Store) DeleteRecurrence(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurrences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting recurrence %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recurrence %d not found", id)
	}
	return nil
}

func scanRecurrence(row rowScanner) (*models.RecurringDefinition, error) {
	var (
		r                    models.RecurringDefinition
		typ                  string
		amountStr, startStr  string
		endStr               sql.NullString
		createdStr, updStr   string
	)
	err := row.Scan(&r.ID, &typ, &r.Category, &r.Subcategory, &amountStr,
		&r.Frequency, &startStr, &endStr, &r.Status, &r.Description,
		&createdStr, &updStr)
	if err != nil {
		return nil, err
	}

	r.Type = models.TransactionType(typ)
	if r.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("corrupt amount %q in recurrence %d: %w", amountStr, r.ID, err)
	}
	if r.StartDate, err = time.Parse(dateutils.DateLayoutISO, startStr); err != nil {
		return nil, fmt.Errorf("corrupt start date %q in recurrence %d: %w", startStr, r.ID, err)
	}
	if endStr.Valid && endStr.String != "" {
		end, err := time.Parse(dateutils.DateLayoutISO, endStr.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt end date %q in recurrence %d: %w", endStr.String, r.ID, err)
		}
		r.EndDate = &end
	}
	if t, err := time.Parse(dateutils.DateLayoutFull, createdStr); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(dateutils.DateLayoutFull, updStr); err == nil {
		r.UpdatedAt = t
	}
	return &r, nil
}
