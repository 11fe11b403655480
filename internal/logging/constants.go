package logging

// Standardized field names for structured logging. Keeping these consistent
// makes the log output easy to filter when debugging a batch run.
const (
	FieldFile       = "file_path"
	FieldDocType    = "doc_type"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldDate       = "date"
	FieldSource     = "source"
	FieldRecurrence = "recurrence_id"
	FieldFrequency  = "frequency"
	FieldWorkers    = "workers"
	FieldCount      = "count"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldStatus     = "status"
	FieldOperation  = "operation"
)
