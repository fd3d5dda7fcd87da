package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/audit"
	apperrors "github.com/openclaw/poker-server-go/internal/errors"
	"github.com/openclaw/poker-server-go/internal/httputil"
	"github.com/openclaw/poker-server-go/internal/model"
	"github.com/openclaw/poker-server-go/internal/util"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

const (
	IdentityHeader  = "X-Poker-User"
	SignatureHeader = "X-Poker-Signature"
)

func GetIdentity(ctx context.Context) model.Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(model.Identity); ok {
		return identity
	}
	return model.Anonymous
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityMiddleware trusts the user key set by the upstream tracker. When a
// secret is configured the key must carry a matching HMAC signature.
type IdentityMiddleware struct {
	secret string
}

func NewIdentityMiddleware(secret string) *IdentityMiddleware {
	return &IdentityMiddleware{secret: secret}
}

func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(IdentityHeader))
		if user == "" {
			httputil.WriteError(w, apperrors.Unauthorized("Missing user identity"))
			return
		}

		if m.secret != "" {
			signature := strings.ToLower(strings.TrimSpace(r.Header.Get(SignatureHeader)))
			expected := util.HmacSHA256(m.secret, user)
			if signature == "" || !util.ConstantTimeEqual(signature, expected) {
				log.Warn().Str("user", user).Msg("identity middleware: invalid signature")
				audit.LogFromRequest(r, audit.Event{
					Type:     audit.EventAuthFailure,
					Identity: user,
				})
				httputil.WriteError(w, apperrors.InvalidSignature())
				return
			}
		}

		ctx := WithIdentity(r.Context(), model.Identity(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
