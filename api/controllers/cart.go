package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/api/responses"
	"github.com/yannickabena/mboa-storefront/api/validators"
	cartsvc "github.com/yannickabena/mboa-storefront/internal/cart"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

type cartResponse struct {
	Items []cartsvc.Item `json:"items"`
	Total string         `json:"total"`
	Count int            `json:"count"`
}

func newCartResponse(items []cartsvc.Item, total decimal.Decimal) cartResponse {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return cartResponse{
		Items: items,
		Total: total.String(),
		Count: count,
	}
}

// CartFetch returns the session's cart with its recomputed total.
func CartFetch(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		responses.WriteSuccess(w, newCartResponse(store.Items(sessionID), store.Total(sessionID)))
	}
}

type cartAddRequest struct {
	ProductID   int64  `json:"produit_id" validate:"required"`
	Nom         string `json:"nom" validate:"required"`
	Prix        string `json:"prix" validate:"required"`
	Image       string `json:"image,omitempty"`
	CompagnieID int64  `json:"compagnie_id" validate:"required"`
	Quantite    int    `json:"quantite"`
}

// CartAdd appends a line, merging quantities for an already-present product.
func CartAdd(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(payload.Prix)
		if err != nil || price.IsNegative() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid price").WithDetails(map[string]string{"prix": "must be a positive amount"}))
			return
		}

		store.AddItem(sessionID, cartsvc.Item{
			ProductID: payload.ProductID,
			Name:      validators.SanitizeString(payload.Nom, 190),
			UnitPrice: price,
			ImageRef:  payload.Image,
			CompanyID: payload.CompagnieID,
			Quantity:  payload.Quantite,
		})

		responses.WriteSuccess(w, newCartResponse(store.Items(sessionID), store.Total(sessionID)))
	}
}

type cartQuantityRequest struct {
	Quantite int `json:"quantite" validate:"required"`
}

// CartUpdateQuantity sets one line's quantity, clamped to at least one.
func CartUpdateQuantity(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		productID, err := pathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.UpdateQuantity(sessionID, productID, payload.Quantite)
		responses.WriteSuccess(w, newCartResponse(store.Items(sessionID), store.Total(sessionID)))
	}
}

// CartRemove drops one product from the cart.
func CartRemove(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())

		productID, err := pathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.RemoveItem(sessionID, productID)
		responses.WriteSuccess(w, newCartResponse(store.Items(sessionID), store.Total(sessionID)))
	}
}

// CartClear empties the cart.
func CartClear(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		store.Clear(sessionID)
		responses.WriteSuccess(w, newCartResponse(store.Items(sessionID), store.Total(sessionID)))
	}
}

func pathInt64(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]string{key: "must be a positive id"})
	}
	return value, nil
}
