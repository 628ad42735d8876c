package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yannickabena/mboa-storefront/internal/cart"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	checkoutsvc "github.com/yannickabena/mboa-storefront/internal/checkout"
	"github.com/yannickabena/mboa-storefront/internal/products"
	"github.com/yannickabena/mboa-storefront/internal/session"
	"github.com/yannickabena/mboa-storefront/internal/toast"
	"github.com/yannickabena/mboa-storefront/pkg/config"
	"github.com/yannickabena/mboa-storefront/pkg/tokenstore"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

type fakeUpstream struct {
	responses map[string]any
}

func (f *fakeUpstream) Do(ctx context.Context, method, path string, body, out any) error {
	if resp, ok := f.responses[method+" "+path]; ok && out != nil {
		raw, _ := json.Marshal(resp)
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (f *fakeUpstream) DoForm(ctx context.Context, method, path string, fields map[string]string, file *upstream.FileUpload, out any) error {
	return f.Do(ctx, method, path, nil, out)
}

func (f *fakeUpstream) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("")), "application/pdf", nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	fake := &fakeUpstream{responses: map[string]any{}}
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		Session: config.SessionConfig{
			Secret:     "router-test-secret",
			Issuer:     "mboa-storefront",
			CookieName: "mboa_session",
			TTL:        time.Hour,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	sessions, err := session.NewService(fake, tokenstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("session service: %v", err)
	}
	carts := cart.NewStore()
	checkout, err := checkoutsvc.NewService(fake, carts)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	productSvc, err := products.NewService(fake)
	if err != nil {
		t.Fatalf("products service: %v", err)
	}
	cache := categories.NewCache(func(ctx context.Context) ([]categories.Category, error) {
		return []categories.Category{{ID: 1, Name: "Restaurant"}}, nil
	}, time.Minute, nil)

	return NewRouter(Deps{
		Config:        cfg,
		Sessions:      sessions,
		Carts:         carts,
		Checkout:      checkout,
		Products:      productSvc,
		CategoryCache: cache,
		Resolver:      categories.NewResolver(cache, nil),
		Toasts:        toast.NewCenter(time.Minute),
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSessionCookieCarriesCartAcrossRequests(t *testing.T) {
	router := newTestRouter(t)

	// First request mints the session cookie.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cart fetch: %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("session cookie not minted")
	}

	// Add an item under the same session.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"produit_id":12,"nom":"Boubou","prix":"5000","compagnie_id":4,"quantite":2}`))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cart add: %d, body = %s", rec.Code, rec.Body.String())
	}

	// The same cookie sees the item; a cookie-less request does not.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var withCookie struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&withCookie); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if withCookie.Data.Count != 2 {
		t.Fatalf("count = %d, want 2", withCookie.Data.Count)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	var anonymous struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&anonymous); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if anonymous.Data.Count != 0 {
		t.Fatalf("carts must not leak across sessions: %d", anonymous.Data.Count)
	}
}

func TestCategoriesServedFromCache(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope struct {
		Data []categories.Category `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Restaurant" {
		t.Fatalf("categories: %+v", envelope.Data)
	}
}
