package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
)

// SessionHeader carries the storefront session ID. The middleware mints one
// when the client has none yet and echoes it back so the client can persist
// it.
const SessionHeader = "X-Session-ID"

type sessionKey struct{}
type identityKey struct{}

// withSession ensures every request has a session ID.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		w.Header().Set(SessionHeader, id)
		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withIdentity resolves an optional bearer token into the customer identity.
// An unresolvable token demotes the request to guest rather than rejecting
// it: checkout works either way, only the payload shape differs.
func (h *Handler) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || h.auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		ident, err := h.auth.Identity(r.Context(), token)
		if err != nil {
			zctx.From(r.Context()).Debug("Token did not resolve, continuing as guest", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

func identity(r *http.Request) *checkout.Identity {
	ident, _ := r.Context().Value(identityKey{}).(*checkout.Identity)
	return ident
}
