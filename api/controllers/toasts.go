package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/api/responses"
	"github.com/yannickabena/mboa-storefront/internal/toast"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

// ToastList returns the session's pending notifications. The browser polls
// this and renders the whole queue at once.
func ToastList(center *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		responses.WriteSuccess(w, center.List(sessionID))
	}
}

// ToastDismiss removes one toast ahead of its auto-close timer.
func ToastDismiss(center *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		toastID := chi.URLParam(r, "toastId")
		if toastID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "toast id required"))
			return
		}

		// Dismissing an already-expired toast is not an error.
		center.Dismiss(sessionID, toastID)
		responses.WriteSuccess(w, center.List(sessionID))
	}
}

// ToastClear drops the whole queue.
func ToastClear(center *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		center.Clear(sessionID)
		responses.WriteSuccess(w, center.List(sessionID))
	}
}
