package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"steeple/pkg/requestcontext"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestFingerprintStableAcrossMinorVersions(t *testing.T) {
	patched := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.71 Safari/537.36"

	a := Fingerprint("41.90.1.1", chromeUA)
	b := Fingerprint("41.90.1.1", patched)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, Fingerprint("41.90.1.2", chromeUA))
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA, gotFP string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
		gotFP = requestcontext.DeviceFingerprint(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "41.90.1.1, 10.0.0.1")
	req.Header.Set("User-Agent", chromeUA)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "41.90.1.1", gotIP)
	assert.Equal(t, chromeUA, gotUA)
	assert.Equal(t, Fingerprint("41.90.1.1", chromeUA), gotFP)
}

func TestRequestIDHonorsInbound(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", got)
	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))

	// Without an inbound header a fresh ID is assigned.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	handler := RequireRole(logger, RoleElder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(requestcontext.WithAdminRole(req.Context(), RoleClerk))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(requestcontext.WithAdminRole(req.Context(), RoleElder))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestContentTypeJSON(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "text/xml")
	req.ContentLength = 10
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
