package log

// Shared field names.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldScopeID    = "scope_id"
	FieldRecordID   = "record_id"
	FieldOp         = "op"
	FieldRowRef     = "row_ref"
)

// Component names.
const (
	ComponentApp    = "app"
	ComponentWorker = "worker"
)
