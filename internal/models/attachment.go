package models

import "time"

// Attachment is a stored source document linked to a transaction. The
// metadata row and the physical file are managed independently so a missing
// file never blocks metadata cleanup.
type Attachment struct {
	ID            int64     `json:"id"`
	TransactionID int64     `json:"transaction_id"`
	FileName      string    `json:"file_name"`
	StoredPath    string    `json:"stored_path"`
	ContentType   string    `json:"content_type,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}
