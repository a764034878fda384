package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldChart      = "chart"
	FieldChartKind  = "chart_kind"
	FieldBlockID    = "block_id"
	FieldDataSource = "data_source"
	FieldRecords    = "records"
	FieldPoints     = "points"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldTrigger    = "trigger"
	FieldDryRun     = "dry_run"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentUpdater = "updater"
	ComponentRunner  = "runner"
	ComponentNotion  = "notion"
	ComponentSheets  = "sheets"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLocate    = "locate"
	OpQuery     = "query"
	OpSchema    = "schema"
	OpAggregate = "aggregate"
	OpRender    = "render"
	OpWrite     = "write"
	OpRun       = "run"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithChart adds chart identification fields
func (f LogFields) WithChart(title, kind, dataSource string) LogFields {
	f[FieldChart] = title
	f[FieldChartKind] = kind
	f[FieldDataSource] = dataSource
	return f
}

// WithResult adds the outcome of a chart update
func (f LogFields) WithResult(blockID string, records, points int, durationMs int64) LogFields {
	f[FieldBlockID] = blockID
	f[FieldRecords] = records
	f[FieldPoints] = points
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
