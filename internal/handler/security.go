package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-campaigns/internal/domain/auth"
	"github.com/xenking/kart-campaigns/pkg/httpmiddleware"
)

// APIKeyHeader carries the client API key.
const APIKeyHeader = "api_key"

var errUnauthorized = errors.New("unauthorized")

type apiKeyCtxKey struct{}

// APIKeyFromContext returns the authenticated key of the request, if any.
func APIKeyFromContext(ctx context.Context) (*auth.APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyCtxKey{}).(*auth.APIKeyInfo)
	return info, ok
}

// SecurityHandler authenticates requests by the HMAC-SHA256 of their API key.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate resolves key to an active API key. Lookup failures other than
// an unknown key are returned as is.
func (s *SecurityHandler) Authenticate(ctx context.Context, key string) (*auth.APIKeyInfo, error) {
	if key == "" {
		return nil, errUnauthorized
	}
	hash := auth.HashKey(s.pepper, key)

	info, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			return nil, errUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}

	// The stored hash must match what was computed, not just the row lookup.
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, errUnauthorized
	}
	return info, nil
}

// Require rejects requests without a valid API key.
func (s *SecurityHandler) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
		switch {
		case errors.Is(err, errUnauthorized):
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "invalid or missing api key")
			return
		case err != nil:
			zctx.From(r.Context()).Error("API key lookup failed", zap.Error(err))
			httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, info)
		ctx = zctx.With(ctx, zap.String("api_key_name", info.Name))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
