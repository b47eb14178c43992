package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_Order(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(Wrap(okHandler(), mark("outer"), mark("inner")), nil)
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generated", incoming: ""},
		{name: "reused", incoming: "abc-123", reuse: true},
		{name: "too long", incoming: strings.Repeat("a", 129)},
		{name: "control characters", incoming: "bad\nid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			w := serve(h, func(r *http.Request) {
				if tt.incoming != "" {
					r.Header.Set(RequestIDHeader, tt.incoming)
				}
			})

			got := w.Header().Get(RequestIDHeader)
			require.NotEmpty(t, got)
			assert.Equal(t, got, seen)
			if tt.reuse {
				assert.Equal(t, tt.incoming, got)
			} else {
				assert.NotEqual(t, tt.incoming, got)
			}
		})
	}
}

func TestInjectLoggerAndLogRequests(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	lg := zap.New(core)

	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zctx.From(r.Context()).Info("Inside")
		w.WriteHeader(http.StatusTeapot)
	}),
		RequestID(),
		InjectLogger(lg),
		LogRequests(),
	)

	w := serve(h, func(r *http.Request) { r.Header.Set(RequestIDHeader, "req-1") })
	assert.Equal(t, http.StatusTeapot, w.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Inside", entries[0].Message)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])

	fields := entries[1].ContextMap()
	assert.Equal(t, "Request", entries[1].Message)
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := serve(h, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "close", w.Header().Get("Connection"))
	assert.Equal(t, "internal error", decodeError(t, w.Body.Bytes()).Message)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         CORSConfig
		origin      string
		preflight   bool
		wantOrigin  string
		wantStatus  int
		wantMethods string
		wantCreds   bool
	}{
		{
			name:       "any origin",
			origin:     "https://shop.example",
			wantOrigin: "*",
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin echoed in configured case",
			cfg:        CORSConfig{AllowOrigins: []string{"https://Shop.example"}},
			origin:     "https://shop.example",
			wantOrigin: "https://Shop.example",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unlisted origin",
			cfg:        CORSConfig{AllowOrigins: []string{"https://shop.example"}},
			origin:     "https://evil.example",
			wantStatus: http.StatusOK,
		},
		{
			name:       "credentials echo origin",
			cfg:        CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true},
			origin:     "https://shop.example",
			wantOrigin: "https://shop.example",
			wantStatus: http.StatusOK,
			wantCreds:  true,
		},
		{
			name:        "preflight",
			origin:      "https://shop.example",
			preflight:   true,
			wantOrigin:  "*",
			wantStatus:  http.StatusNoContent,
			wantMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.cfg)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
			if tt.preflight {
				req.Method = http.MethodOptions
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, w.Header().Get("Access-Control-Allow-Methods"))
			if tt.wantCreds {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}
