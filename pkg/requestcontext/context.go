// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that
// are typically set by middleware but consumed by services. By keeping this
// package free of net/http dependencies, services can import only what they
// need without pulling in HTTP-related code.
//
// Usage in services (read values):
//
//	now := requestcontext.Now(ctx)
//	deviceID := requestcontext.DeviceID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	adminIDKey           struct{}
	adminRoleKey         struct{}
	deviceFingerprintKey struct{}
	clientIPKey          struct{}
	userAgentKey         struct{}
	requestIDKey         struct{}
	requestTimeKey       struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyAdminID           = adminIDKey{}
	ContextKeyAdminRole         = adminRoleKey{}
	ContextKeyDeviceFingerprint = deviceFingerprintKey{}
	ContextKeyClientIP          = clientIPKey{}
	ContextKeyUserAgent         = userAgentKey{}
	ContextKeyRequestID         = requestIDKey{}
	ContextKeyRequestTime       = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Admin context (set by the auth middleware for administrative routes)
// -----------------------------------------------------------------------------

// AdminID retrieves the authenticated administrator ID from the context.
// Returns "" if the request is unauthenticated.
func AdminID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyAdminID).(string); ok {
		return id
	}
	return ""
}

// WithAdminID injects an administrator ID into the context.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, ContextKeyAdminID, adminID)
}

// AdminRole retrieves the authenticated administrator role from the context.
func AdminRole(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyAdminRole).(string); ok {
		return role
	}
	return ""
}

// WithAdminRole injects an administrator role into the context.
func WithAdminRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyAdminRole, role)
}

// -----------------------------------------------------------------------------
// Device context
// -----------------------------------------------------------------------------

// DeviceFingerprint retrieves the server-computed device fingerprint from the
// context. This supplements the client-supplied device ID in fraud heuristics.
func DeviceFingerprint(ctx context.Context) string {
	if fp, ok := ctx.Value(ContextKeyDeviceFingerprint).(string); ok {
		return fp
	}
	return ""
}

// WithDeviceFingerprint injects a device fingerprint into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithDeviceFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, ContextKeyDeviceFingerprint, fingerprint)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like CLI, tests).
// All service-window and calendar-day decisions in a request derive from this
// single timestamp so a request straddling midnight stays internally
// consistent.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - CLI commands that need a consistent timestamp
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
