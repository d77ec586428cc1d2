package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/josh-kwaku/topup-ledger/internal/auth"
	"github.com/josh-kwaku/topup-ledger/internal/handler"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

// OperatorAuth admits requests bearing an HS256 token with the operator role.
func OperatorAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.RequireOperator(token, secret)
			if err != nil {
				logging.Security(r.Context()).Warn("operator auth rejected", "error", err)
				if errors.Is(err, auth.ErrNotOperator) {
					handler.RespondAppError(w, handler.ErrForbidden, nil)
					return
				}
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithOperator(r.Context(), claims.Subject)
			ctx = logging.With(ctx, "operator", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
