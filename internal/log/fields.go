package log

// Canonical field names.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"

	FieldProjectID = "project_id"
	FieldItemID    = "item_id"
	FieldMarkerID  = "marker_id"
	FieldFlowID    = "flow_id"

	FieldMethod   = "method"
	FieldPath     = "path"
	FieldRoute    = "route"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldBytes    = "bytes"
	FieldRemote   = "remote_addr"
)
