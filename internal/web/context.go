package web

import (
	"context"
	"net/http"
)

func AddValueToContext(r *http.Request, key ContextKey, value any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, value))
}

// GetValueFromContext reports false when key is absent or holds a value of another type.
func GetValueFromContext[T any](r *http.Request, key ContextKey) (T, bool) {
	value, ok := r.Context().Value(key).(T)
	return value, ok
}

func RequestID(r *http.Request) string {
	id, _ := GetValueFromContext[string](r, RequestIDCtxKey)
	return id
}
