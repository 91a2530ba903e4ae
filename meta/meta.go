// Package meta provides functionality for managing request metadata through context.
package meta

import (
	"context"

	"github.com/code19m/errx"
)

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID represents a unique identifier for tracing requests across services.
	TraceID ContextKey = "trace_id"

	// ActorID identifies the actor performing the operation.
	ActorID ContextKey = "actor_id"

	// ActorType indicates the type of the actor performing the operation.
	ActorType ContextKey = "actor_type"

	// TenantID identifies the tenant the operation runs for.
	TenantID ContextKey = "tenant_id"

	// ServiceName identifies the name of current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"
)

// InjectMetaToContext adds metadata from the provided map to the context.
// It only adds values that are not empty strings and returns a new context
// with the added values.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // allow due to finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext extracts all metadata from the provided context.
// It retrieves values for all predefined context keys and returns them in a map.
// Only non-empty string values are included in the returned map.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range []ContextKey{
		TraceID,
		ActorID,
		ActorType,
		TenantID,
		ServiceName,
		ServiceVersion,
	} {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// ShouldGetMeta returns the string value stored under key. It fails when
// the key is absent or holds a non-string value.
func ShouldGetMeta(ctx context.Context, key ContextKey) (string, error) {
	v := ctx.Value(key)
	if v == nil {
		return "", errx.New(
			"meta key not found in context",
			errx.WithCode(CodeMetaKeyNotFound),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"key": string(key)}),
		)
	}

	s, ok := v.(string)
	if !ok {
		return "", errx.New(
			"meta value type mismatch: expected string",
			errx.WithCode(CodeMetaTypeMismatch),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"key": string(key)}),
		)
	}
	return s, nil
}
