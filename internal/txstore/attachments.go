package txstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mlaurent/scanledger/internal/dateutils"
	"mlaurent/scanledger/internal/models"
)

const attColumns = `id, transaction_id, file_name, stored_path, content_type, size_bytes, created_at`

// AddAttachment records attachment metadata for a transaction.
func (s *Store) AddAttachment(ctx context.Context, a *models.Attachment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (transaction_id, file_name, stored_path, content_type, size_bytes)
		VALUES (?, ?, ?, ?, ?)`,
		a.TransactionID, a.FileName, a.StoredPath, a.ContentType, a.SizeBytes)
	if err != nil {
		return 0, fmt.Errorf("inserting attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// GetAttachment fetches one attachment row by id.
func (s *Store) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attColumns+` FROM attachments WHERE id = ?`, id)
	a, err := scanAttachment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attachment %d not found", id)
	}
	return a, err
}

// ListAttachments returns the attachments of one transaction.
func (s *Store) ListAttachments(ctx context.Context, transactionID int64) ([]*models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attColumns+` FROM attachments WHERE transaction_id = ? ORDER BY id`,
		transactionID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	defer rows.Close()

	var out []*models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAttachment removes the metadata row only. The physical file is
// handled separately so a missing file never blocks cleanup.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting attachment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attachment %d not found", id)
	}
	return nil
}

func scanAttachment(row rowScanner) (*models.Attachment, error) {
	var (
		a          models.Attachment
		createdStr string
	)
	err := row.Scan(&a.ID, &a.TransactionID, &a.FileName, &a.StoredPath,
		&a.ContentType, &a.SizeBytes, &createdStr)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(dateutils.DateLayoutFull, createdStr); err == nil {
		a.CreatedAt = t
	}
	return &a, nil
}
