package controllers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/api/responses"
	"github.com/yannickabena/mboa-storefront/api/validators"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	"github.com/yannickabena/mboa-storefront/internal/products"
	"github.com/yannickabena/mboa-storefront/internal/session"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

const maxImageUploadBytes = 10 << 20

// CategoriesList serves the cached type-category table.
func CategoriesList(cache *categories.Cache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cache.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClothingPrincipalCategories lists top-level clothing categories.
func ClothingPrincipalCategories(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ClothingPrincipalCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClothingCategories lists every clothing category.
func ClothingCategories(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ClothingCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClothingSubCategories lists the sub-categories under one category.
func ClothingSubCategories(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := pathInt64(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ClothingSubCategories(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ClothingProducts serves one page of the filtered storefront listing.
func ClothingProducts(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryInt64(r, "categorie_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subCategoryID, err := validators.ParseQueryInt64(r, "sous_categorie_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ClothingProducts(r.Context(), products.ListParams{
			CategorieID:     categoryID,
			SousCategorieID: subCategoryID,
			Page:            page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ClothingProductDetail serves a single product.
func ClothingProductDetail(svc *products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.ClothingProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ClothingProductCreate accepts the merchant's multipart product form and
// forwards it, image included, with the merchant token attached.
func ClothingProductCreate(svc *products.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		ctx := sessions.WithToken(r.Context(), sessionID)

		input, image, err := parseProductForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateClothingProduct(ctx, input, image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// RestaurantMenus lists the signed-in restaurant's menus.
func RestaurantMenus(svc *products.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		ctx := sessions.WithToken(r.Context(), sessionID)

		menus, err := svc.RestaurantMenus(ctx)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menus)
	}
}

// RestaurantPlatCreate accepts the multipart dish form.
func RestaurantPlatCreate(svc *products.Service, sessions *session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		ctx := sessions.WithToken(r.Context(), sessionID)

		if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		price, err := parsePrice(r.FormValue("prix"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var menuID int64
		if raw := r.FormValue("menu_id"); raw != "" {
			menuID, err = parseFormID("menu_id", raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := products.CreatePlatInput{
			Nom:         validators.SanitizeString(r.FormValue("nom"), 190),
			Description: validators.SanitizeString(r.FormValue("description"), 2000),
			Prix:        price,
			MenuID:      menuID,
		}
		if input.Nom == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"nom": "is required"}))
			return
		}

		image, err := formImage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreatePlat(ctx, input, image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func parseProductForm(r *http.Request) (products.CreateProductInput, *upstream.FileUpload, error) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return products.CreateProductInput{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	price, err := parsePrice(r.FormValue("prix"))
	if err != nil {
		return products.CreateProductInput{}, nil, err
	}

	input := products.CreateProductInput{
		Nom:         validators.SanitizeString(r.FormValue("nom"), 190),
		Description: validators.SanitizeString(r.FormValue("description"), 2000),
		Prix:        price,
	}
	if input.Nom == "" {
		return products.CreateProductInput{}, nil,
			pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"nom": "is required"})
	}

	if raw := r.FormValue("categorie_id"); raw != "" {
		id, err := parseFormID("categorie_id", raw)
		if err != nil {
			return products.CreateProductInput{}, nil, err
		}
		input.CategorieID = id
	}
	if raw := r.FormValue("sous_categorie_id"); raw != "" {
		id, err := parseFormID("sous_categorie_id", raw)
		if err != nil {
			return products.CreateProductInput{}, nil, err
		}
		input.SousCategorieID = id
	}

	image, err := formImage(r)
	if err != nil {
		return products.CreateProductInput{}, nil, err
	}
	return input, image, nil
}

func formImage(r *http.Request) (*upstream.FileUpload, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image upload")
	}
	return &upstream.FileUpload{
		Field:    "image",
		Filename: header.Filename,
		Content:  file,
	}, nil
}

func parseFormID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]string{field: "must be a positive id"})
	}
	return id, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid price").
			WithDetails(map[string]string{"prix": "must be a positive amount"})
	}
	return price, nil
}
