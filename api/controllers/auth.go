package controllers

import (
	"net/http"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/api/responses"
	"github.com/yannickabena/mboa-storefront/api/validators"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	"github.com/yannickabena/mboa-storefront/internal/session"
	"github.com/yannickabena/mboa-storefront/internal/toast"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

type loginRequest struct {
	CMPID      string `json:"CMPID" validate:"required"`
	MotDePasse string `json:"mot_de_passe" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool               `json:"authenticated"`
	Compagnie     *session.Compagnie `json:"compagnie,omitempty"`
	DashboardURL  string             `json:"dashboard_url,omitempty"`
	LastError     string             `json:"last_error,omitempty"`
}

// AuthLogin signs the merchant in and resolves their dashboard route.
func AuthLogin(svc *session.Service, resolver *categories.Resolver, toasts *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		compagnie, err := svc.Login(r.Context(), sessionID, payload.CMPID, payload.MotDePasse)
		if err != nil {
			if toasts != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
					toasts.Error(sessionID, typed.Message())
				} else {
					toasts.Error(sessionID, "la connexion a échoué")
				}
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dashboardURL := resolver.DashboardURL(svc.WithToken(r.Context(), sessionID), compagnie.CategoryRef())
		if toasts != nil {
			toasts.Success(sessionID, "connexion réussie")
		}

		responses.WriteSuccess(w, sessionResponse{
			Authenticated: true,
			Compagnie:     compagnie,
			DashboardURL:  dashboardURL,
		})
	}
}

// AuthLogout tears the session down. Always succeeds from the browser's
// point of view, even when the upstream call fails.
func AuthLogout(svc *session.Service, toasts *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		svc.Logout(r.Context(), sessionID)
		if toasts != nil {
			toasts.Clear(sessionID)
		}

		responses.WriteSuccess(w, sessionResponse{Authenticated: false})
	}
}

type registerRequest struct {
	Nom             string `json:"nom" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	TypeCategorieID int64  `json:"type_categorie_id" validate:"required"`
}

// AuthRegister creates the merchant account. No session is established;
// the browser navigates to login afterwards.
func AuthRegister(svc *session.Service, toasts *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), session.RegisterInput{
			Nom:             validators.SanitizeString(payload.Nom, 190),
			Email:           validators.SanitizeString(payload.Email, 190),
			TypeCategorieID: payload.TypeCategorieID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if toasts != nil {
			toasts.Success(sessionID, "compte créé, connectez-vous avec votre CMPID")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthSession reports the session state, resuming a durable token from a
// previous visit when one exists. A dead token is reported with the
// session-expired error so the browser can clear its state.
func AuthSession(svc *session.Service, resolver *categories.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		state, compagnie, lastError := svc.Snapshot(sessionID)
		if state == session.StateAuthenticated && compagnie != nil {
			responses.WriteSuccess(w, sessionResponse{
				Authenticated: true,
				Compagnie:     compagnie,
				DashboardURL:  resolver.DashboardURL(svc.WithToken(r.Context(), sessionID), compagnie.CategoryRef()),
			})
			return
		}

		resumed, err := svc.Resume(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if resumed == nil {
			responses.WriteSuccess(w, sessionResponse{
				Authenticated: false,
				LastError:     lastError,
			})
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			Authenticated: true,
			Compagnie:     resumed,
			DashboardURL:  resolver.DashboardURL(svc.WithToken(r.Context(), sessionID), resumed.CategoryRef()),
		})
	}
}

type profileRequest struct {
	Nom   string `json:"nom,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// AuthProfileUpdate patches the signed-in merchant's profile.
func AuthProfileUpdate(svc *session.Service, toasts *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		var payload profileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProfile(r.Context(), sessionID, session.ProfileInput{
			Nom:   validators.SanitizeString(payload.Nom, 190),
			Email: validators.SanitizeString(payload.Email, 190),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if toasts != nil {
			toasts.Success(sessionID, "profil mis à jour")
		}
		responses.WriteSuccess(w, updated)
	}
}
