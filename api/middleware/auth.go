package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/leasedesk-backend/api/responses"
	"github.com/angelmondragon/leasedesk-backend/api/validators"
	pkgAuth "github.com/angelmondragon/leasedesk-backend/pkg/auth"
	"github.com/angelmondragon/leasedesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
)

// Auth validates an operator bearer token and seeds the request context with its claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseOperatorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithOperator(r.Context(), claims.OperatorID, string(claims.Role))
			if claims.Name != "" {
				ctx = context.WithValue(ctx, ctxOperatorName, claims.Name)
			}

			if logg != nil {
				ctx = logg.WithOperatorID(ctx, claims.OperatorID)
				ctx = logg.WithOperatorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
