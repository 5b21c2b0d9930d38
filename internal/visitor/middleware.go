package visitor

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey struct{}

const cookieTTL = 365 * 24 * time.Hour

// FromContext returns the visitor id attached by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok && v != ""
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

type Cookies struct {
	Name   string
	Secure bool
	Tokens *TokenMaker
	Log    *zap.Logger
}

// Middleware resolves the visitor from the signed cookie, minting a fresh
// visitor (and cookie) when it is missing or does not verify. The cookie is
// re-issued on every request so that active visitors never expire.
func (c Cookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if ck, err := r.Cookie(c.Name); err == nil {
			if claims, err := c.Tokens.Parse(ck.Value); err == nil {
				id = claims.VisitorID
			} else if c.Log != nil {
				c.Log.Debug("visitor cookie rejected", zap.Error(err))
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		if tok, err := c.Tokens.New(id, cookieTTL); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     c.Name,
				Value:    tok,
				Path:     "/",
				MaxAge:   int(cookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   c.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		} else if c.Log != nil {
			c.Log.Error("sign visitor cookie", zap.Error(err))
		}

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
