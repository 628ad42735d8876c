package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/internal/cart"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	checkoutsvc "github.com/yannickabena/mboa-storefront/internal/checkout"
	"github.com/yannickabena/mboa-storefront/internal/session"
	"github.com/yannickabena/mboa-storefront/internal/toast"
	"github.com/yannickabena/mboa-storefront/pkg/tokenstore"
	"github.com/yannickabena/mboa-storefront/pkg/types"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

const testSessionID = "sess-ctrl"

// fakeUpstream scripts one response or error per "METHOD path".
type fakeUpstream struct {
	responses map[string]any
	errors    map[string]error
	calls     []string
}

func (f *fakeUpstream) Do(ctx context.Context, method, path string, body, out any) error {
	key := method + " " + path
	f.calls = append(f.calls, key)
	if err, ok := f.errors[key]; ok {
		return err
	}
	if resp, ok := f.responses[key]; ok && out != nil {
		raw, _ := json.Marshal(resp)
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (f *fakeUpstream) DoForm(ctx context.Context, method, path string, fields map[string]string, file *upstream.FileUpload, out any) error {
	return f.Do(ctx, method, path, fields, out)
}

func (f *fakeUpstream) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	if err := f.Do(ctx, "GET", path, nil, nil); err != nil {
		return nil, "", err
	}
	return io.NopCloser(strings.NewReader("%PDF-1.4")), "application/pdf", nil
}

type testEnv struct {
	fake     *fakeUpstream
	sessions *session.Service
	tokens   tokenstore.Store
	carts    *cart.Store
	checkout *checkoutsvc.Service
	toasts   *toast.Center
	resolver *categories.Resolver
}

func newTestEnv(t *testing.T, fake *fakeUpstream) *testEnv {
	t.Helper()

	tokens := tokenstore.NewMemory()
	sessions, err := session.NewService(fake, tokens, nil)
	if err != nil {
		t.Fatalf("session service: %v", err)
	}
	carts := cart.NewStore()
	checkout, err := checkoutsvc.NewService(fake, carts)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	cache := categories.NewCache(func(ctx context.Context) ([]categories.Category, error) {
		return []categories.Category{
			{ID: 1, Name: "Restaurant"},
			{ID: 2, Name: "Vêtement"},
		}, nil
	}, time.Minute, nil)

	return &testEnv{
		fake:     fake,
		sessions: sessions,
		tokens:   tokens,
		carts:    carts,
		checkout: checkout,
		toasts:   toast.NewCenter(time.Minute),
		resolver: categories.NewResolver(cache, nil),
	}
}

// doRequest runs a handler with the session id already stamped, the way the
// session middleware does in production.
func doRequest(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithSessionID(req.Context(), testSessionID))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
	}
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return envelope.Error
}
