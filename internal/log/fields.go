package log

import "bizdash/internal/core"

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldPeriod     = "period"
	FieldClientID   = "client_id"
	FieldPaymentID  = "payment_id"
	FieldProjectID  = "project_id"
	FieldTaskID     = "task_id"
	FieldStatus     = "status"
	FieldAmount     = "amount"
	FieldMatches    = "matches"
	FieldEventID    = "event_id"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentBilling   = "billing"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCalendar  = "calendar"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentExport    = "export"
)

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpUpsert   = "upsert"
	OpManual   = "manual_payment"
	OpToggle   = "toggle"
	OpSync     = "sync"
	OpBilling  = "billing"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields builds structured attributes fluently.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithClientIP(ip string) Fields {
	f[FieldClientIP] = ip
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithPayment adds the identifying fields of a payment.
func (f Fields) WithPayment(p core.Payment) Fields {
	f[FieldPaymentID] = p.ID
	f[FieldClientID] = p.ClientID
	f[FieldPeriod] = p.EffectivePeriod().String()
	f[FieldStatus] = string(p.Status)
	f[FieldAmount] = p.Value.String()
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// Args flattens the fields into slog key/value pairs.
func (f Fields) Args() []any {
	args := make([]any, 0, len(f)*2)
	for k, v := range f {
		args = append(args, k, v)
	}
	return args
}
