package models

// TransactionType is the direction/kind of a transaction.
type TransactionType string

// Transaction types. Amounts are stored as absolute values; the sign of a
// movement is carried by its type.
const (
	TypeExpense     TransactionType = "Expense"
	TypeIncome      TransactionType = "Income"
	TypeTransferIn  TransactionType = "TransferIn"
	TypeTransferOut TransactionType = "TransferOut"
)

// Source identifies the ingestion path that produced a transaction.
type Source string

// Transaction sources.
const (
	SourceManual    Source = "manual"
	SourceOCR       Source = "ocr"
	SourcePDF       Source = "pdf"
	SourceCSV       Source = "csv"
	SourceOFX       Source = "ofx"
	SourceGenerated Source = "recurrence_generated"
)

// CategoryUncategorized is the sentinel category assigned when no
// categorization strategy produced a usable result.
const CategoryUncategorized = "Uncategorized"

// Recurring definition statuses. Definitions are archived via a status flip
// rather than physically removed in the normal flow.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
