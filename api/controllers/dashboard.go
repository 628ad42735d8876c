package controllers

import (
	"net/http"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/api/responses"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	"github.com/yannickabena/mboa-storefront/internal/session"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

// DashboardRoute resolves where the signed-in merchant's dashboard lives.
// Resolution never fails outright; the worst case is the generic route.
func DashboardRoute(svc *session.Service, resolver *categories.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		state, compagnie, _ := svc.Snapshot(sessionID)
		if state != session.StateAuthenticated || compagnie == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		url := resolver.DashboardURL(svc.WithToken(r.Context(), sessionID), compagnie.CategoryRef())
		responses.WriteSuccess(w, map[string]string{"dashboard_url": url})
	}
}
