package controllers

import (
	"io"
	"net/http"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/api/responses"
	"github.com/yannickabena/mboa-storefront/api/validators"
	checkoutsvc "github.com/yannickabena/mboa-storefront/internal/checkout"
	"github.com/yannickabena/mboa-storefront/internal/toast"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

type checkoutSubmitRequest struct {
	ClientNom        string `json:"client_nom" validate:"required"`
	ClientTelephone  string `json:"client_telephone" validate:"required"`
	Livraison        bool   `json:"livraison"`
	AdresseLivraison string `json:"adresse_livraison,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// CheckoutSubmit places the order and triggers the mobile-money OTP.
func CheckoutSubmit(svc *checkoutsvc.Service, toasts *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		var payload checkoutSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), sessionID, checkoutsvc.OrderForm{
			ClientNom:        validators.SanitizeString(payload.ClientNom, 190),
			ClientTelephone:  validators.SanitizeString(payload.ClientTelephone, 32),
			Livraison:        payload.Livraison,
			AdresseLivraison: validators.SanitizeString(payload.AdresseLivraison, 500),
			Notes:            validators.SanitizeString(payload.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if toasts != nil {
			toasts.Info(sessionID, "un code OTP vous a été envoyé")
		}
		responses.WriteSuccess(w, result)
	}
}

type verifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6"`
}

// CheckoutVerifyOTP confirms the payment with the received code.
func CheckoutVerifyOTP(svc *checkoutsvc.Service, toasts *toast.Center, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		var payload verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyOTP(r.Context(), sessionID, payload.OTP)
		if err != nil {
			if toasts != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
					toasts.Error(sessionID, "code OTP invalide")
				}
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if toasts != nil {
			toasts.Success(sessionID, "paiement confirmé, merci pour votre commande")
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutReset abandons the pending order and returns to the cart step.
func CheckoutReset(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		svc.Reset(sessionID)
		responses.WriteSuccess(w, map[string]string{"status": "reset"})
	}
}

// CheckoutReceipt streams the order receipt through to the browser.
func CheckoutReceipt(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commandeID, err := pathInt64(r, "commandeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, contentType, err := svc.Receipt(r.Context(), commandeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer body.Close()

		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		if _, err := io.Copy(w, body); err != nil && logg != nil {
			logg.Error(r.Context(), "streaming receipt failed", err)
		}
	}
}
