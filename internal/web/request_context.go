package web

// ContextKey namespaces request context values set by this service.
type ContextKey string

const (
	UserCtxKey      ContextKey = "user_data"
	RequestIDCtxKey ContextKey = "request_id"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"
