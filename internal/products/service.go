// Package products exposes the catalog read and write operations the
// storefront and merchant dashboards need. The upstream owns the data;
// this service only shapes requests and responses.
package products

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yannickabena/mboa-storefront/internal/categories"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

// Product is one clothing catalog entry.
type Product struct {
	ID              int64           `json:"id"`
	Nom             string          `json:"nom"`
	Description     string          `json:"description,omitempty"`
	Prix            decimal.Decimal `json:"prix"`
	Image           string          `json:"image,omitempty"`
	CompagnieID     int64           `json:"compagnie_id"`
	CategorieID     int64           `json:"categorie_id,omitempty"`
	SousCategorieID int64           `json:"sous_categorie_id,omitempty"`
}

// Plat is one restaurant menu entry.
type Plat struct {
	ID          int64           `json:"id"`
	Nom         string          `json:"nom"`
	Description string          `json:"description,omitempty"`
	Prix        decimal.Decimal `json:"prix"`
	Image       string          `json:"image,omitempty"`
	CompagnieID int64           `json:"compagnie_id"`
	MenuID      int64           `json:"menu_id,omitempty"`
}

// Menu groups plats on a restaurant dashboard.
type Menu struct {
	ID    int64  `json:"id"`
	Nom   string `json:"nom"`
	Plats []Plat `json:"plats,omitempty"`
}

// Page is the upstream's paginated listing shape.
type Page struct {
	Items       []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	Total       int       `json:"total"`
}

// ListParams filters the clothing product listing.
type ListParams struct {
	CategorieID     int64
	SousCategorieID int64
	Page            int
}

// CreateProductInput is the merchant-side product creation form. The image
// travels separately as a multipart file.
type CreateProductInput struct {
	Nom             string
	Description     string
	Prix            decimal.Decimal
	CategorieID     int64
	SousCategorieID int64
}

// CreatePlatInput is the restaurant-side dish creation form.
type CreatePlatInput struct {
	Nom         string
	Description string
	Prix        decimal.Decimal
	MenuID      int64
}

type Service struct {
	upstream upstream.Caller
}

func NewService(up upstream.Caller) (*Service, error) {
	if up == nil {
		return nil, errors.New("products: upstream caller required")
	}
	return &Service{upstream: up}, nil
}

// ClothingPrincipalCategories lists the top-level clothing categories.
func (s *Service) ClothingPrincipalCategories(ctx context.Context) ([]categories.Category, error) {
	var out []categories.Category
	if err := s.upstream.Do(ctx, http.MethodGet, "/vetement/categories-principales", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClothingCategories lists every clothing category.
func (s *Service) ClothingCategories(ctx context.Context) ([]categories.Category, error) {
	var out []categories.Category
	if err := s.upstream.Do(ctx, http.MethodGet, "/vetement/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClothingSubCategories lists the sub-categories under one category.
func (s *Service) ClothingSubCategories(ctx context.Context, categoryID int64) ([]categories.Category, error) {
	var out []categories.Category
	path := fmt.Sprintf("/vetement/sous-categories/%d", categoryID)
	if err := s.upstream.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClothingProducts returns one page of the filtered product listing.
func (s *Service) ClothingProducts(ctx context.Context, params ListParams) (*Page, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if params.CategorieID != 0 {
		query.Set("categorie_id", strconv.FormatInt(params.CategorieID, 10))
	}
	if params.SousCategorieID != 0 {
		query.Set("sous_categorie_id", strconv.FormatInt(params.SousCategorieID, 10))
	}

	var out Page
	if err := s.upstream.Do(ctx, http.MethodGet, "/vetement/produits?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClothingProduct fetches a single product.
func (s *Service) ClothingProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	path := fmt.Sprintf("/vetement/produits/%d", id)
	if err := s.upstream.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateClothingProduct uploads a new product with its image. The caller
// must have stamped the merchant token onto the context.
func (s *Service) CreateClothingProduct(ctx context.Context, input CreateProductInput, image *upstream.FileUpload) (*Product, error) {
	fields := map[string]string{
		"nom":         input.Nom,
		"description": input.Description,
		"prix":        input.Prix.String(),
	}
	if input.CategorieID != 0 {
		fields["categorie_id"] = strconv.FormatInt(input.CategorieID, 10)
	}
	if input.SousCategorieID != 0 {
		fields["sous_categorie_id"] = strconv.FormatInt(input.SousCategorieID, 10)
	}

	var out Product
	if err := s.upstream.DoForm(ctx, http.MethodPost, "/vetement/produits", fields, image, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RestaurantMenus lists the authenticated restaurant's menus with plats.
func (s *Service) RestaurantMenus(ctx context.Context) ([]Menu, error) {
	var out []Menu
	if err := s.upstream.Do(ctx, http.MethodGet, "/restaurant/menus", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePlat uploads a new dish with its image.
func (s *Service) CreatePlat(ctx context.Context, input CreatePlatInput, image *upstream.FileUpload) (*Plat, error) {
	fields := map[string]string{
		"nom":         input.Nom,
		"description": input.Description,
		"prix":        input.Prix.String(),
	}
	if input.MenuID != 0 {
		fields["menu_id"] = strconv.FormatInt(input.MenuID, 10)
	}

	var out Plat
	if err := s.upstream.DoForm(ctx, http.MethodPost, "/restaurant/plats", fields, image, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
