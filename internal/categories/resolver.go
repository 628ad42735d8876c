package categories

import (
	"context"
	"strings"

	"github.com/yannickabena/mboa-storefront/pkg/logger"
)

const (
	dashboardPrefix = "/dashboard/"
	defaultRoute    = "/dashboard"
)

// fallbackRoutes maps legacy type-category ids to dashboard routes. A
// compatibility shim for merchants whose category no longer resolves
// against the live table; consulted last and logged when used.
var fallbackRoutes = map[int64]string{
	1:  "/dashboard/restaurant",
	2:  "/dashboard/vetement",
	3:  "/dashboard/sante",
	4:  "/dashboard/electronique",
	5:  "/dashboard/transport",
	6:  "/dashboard/immobilier",
	7:  "/dashboard/education",
	8:  "/dashboard/beaute",
	9:  "/dashboard/loisirs",
	10: "/dashboard/services",
}

// CompanyRef carries the category hints a merchant account may hold. Any
// subset can be present; the resolver tries them in order.
type CompanyRef struct {
	CategoryID     int64
	CategoryName   string
	TypeCategoryID int64
}

// Resolver picks the dashboard route for a merchant after login.
type Resolver struct {
	cache *Cache
	logg  *logger.Logger
}

func NewResolver(cache *Cache, logg *logger.Logger) *Resolver {
	return &Resolver{cache: cache, logg: logg}
}

// DashboardURL resolves the route, first match wins:
// category id against the cached list, then the raw type-category id, then
// a case-insensitive name match, then the static fallback table, then the
// generic dashboard. It never fails; on any degradation it falls through.
func (r *Resolver) DashboardURL(ctx context.Context, ref CompanyRef) string {
	list, err := r.cache.Categories(ctx)
	if err != nil && r.logg != nil {
		r.logg.Warn(ctx, "category list unavailable, resolving from fallbacks")
	}

	var hintID int64

	if ref.CategoryID != 0 {
		hintID = ref.CategoryID
		if cat := findByID(list, ref.CategoryID); cat != nil {
			return routeFor(cat.Name)
		}
	}

	if ref.TypeCategoryID != 0 {
		hintID = ref.TypeCategoryID
		if cat := findByID(list, ref.TypeCategoryID); cat != nil {
			return routeFor(cat.Name)
		}
	}

	if ref.CategoryName != "" {
		if cat := findByName(list, ref.CategoryName); cat != nil {
			return routeFor(cat.Name)
		}
	}

	if route, ok := fallbackRoutes[hintID]; ok {
		if r.logg != nil {
			r.logg.Warn(ctx, "using static category fallback route")
		}
		return route
	}

	return defaultRoute
}

func routeFor(name string) string {
	slug := Slug(name)
	if slug == "" {
		return defaultRoute
	}
	return dashboardPrefix + slug
}

func findByID(list []Category, id int64) *Category {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func findByName(list []Category, name string) *Category {
	for i := range list {
		if strings.EqualFold(list[i].Name, name) {
			return &list[i]
		}
	}
	return nil
}
