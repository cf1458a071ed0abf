package middleware

import (
	"net/http"

	"github.com/angelmondragon/platehub-backend/api/responses"
	"github.com/angelmondragon/platehub-backend/api/validators"
	pkgAuth "github.com/angelmondragon/platehub-backend/pkg/auth"
	"github.com/angelmondragon/platehub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the actor.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := claims.Actor()
			ctx := WithActor(r.Context(), actor)

			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.ID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
				if actor.VendorID != nil {
					ctx = logg.WithVendorID(ctx, actor.VendorID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
