package session

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/tokenstore"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

const sid = "sess-1"

// fakeUpstream scripts one response per method+path.
type fakeUpstream struct {
	responses map[string]any
	errors    map[string]error
	calls     []string
}

func (f *fakeUpstream) key(method, path string) string { return method + " " + path }

func (f *fakeUpstream) Do(ctx context.Context, method, path string, body, out any) error {
	key := f.key(method, path)
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
	return f.Do(ctx, method, path, nil, out)
}

func (f *fakeUpstream) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	return nil, "", f.Do(ctx, "GET", path, nil, nil)
}

func newService(t *testing.T, fake *fakeUpstream) (*Service, tokenstore.Store) {
	t.Helper()
	tokens := tokenstore.NewMemory()
	svc, err := NewService(fake, tokens, nil)
	if err != nil {
		t.Fatalf("service init failed: %v", err)
	}
	return svc, tokens
}

func TestLoginSuccessStoresTokenAndPayload(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"POST /login": map[string]any{
			"token": "tok-1",
			"compagnie": map[string]any{
				"id": 4, "nom": "Chez Awa", "CMPID": "CMP-0042",
				"type_categorie_id": 1,
				"categorie":         map[string]any{"id": 1, "nom": "Restaurant"},
			},
		},
	}}
	svc, tokens := newService(t, fake)

	compagnie, err := svc.Login(context.Background(), sid, "CMP-0042", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if compagnie == nil || compagnie.CMPID != "CMP-0042" {
		t.Fatalf("compagnie payload not returned: %+v", compagnie)
	}

	token, err := tokens.Get(context.Background(), sid)
	if err != nil || token != "tok-1" {
		t.Fatalf("token not durably stored: %q %v", token, err)
	}

	state, cached, _ := svc.Snapshot(sid)
	if state != StateAuthenticated || cached == nil {
		t.Fatalf("unexpected state %q after login", state)
	}

	ref := compagnie.CategoryRef()
	if ref.CategoryID != 1 || ref.CategoryName != "Restaurant" || ref.TypeCategoryID != 1 {
		t.Fatalf("category ref wrong: %+v", ref)
	}
}

func TestLoginValidationFailureLeavesNoToken(t *testing.T) {
	fake := &fakeUpstream{errors: map[string]error{
		"POST /login": pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"cmpid": "invalid"}),
	}}
	svc, tokens := newService(t, fake)

	_, err := svc.Login(context.Background(), sid, "bad", "creds")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.FieldErrors()["cmpid"] != "invalid" {
		t.Fatalf("field errors not surfaced verbatim: %v", typed.FieldErrors())
	}

	if _, err := tokens.Get(context.Background(), sid); err == nil {
		t.Fatalf("token must not be written on failed login")
	}

	state, _, lastErr := svc.Snapshot(sid)
	if state != StateUnauthenticated {
		t.Fatalf("state after failed login = %q", state)
	}
	if lastErr == "" {
		t.Fatalf("error message not retrievable")
	}
}

func TestSecondLoginWhileInFlightIsRejected(t *testing.T) {
	svc, _ := newService(t, &fakeUpstream{})

	svc.mu.Lock()
	svc.stateFor(sid).state = StateAuthenticating
	svc.mu.Unlock()

	_, err := svc.Login(context.Background(), sid, "CMP", "pw")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeBusy {
		t.Fatalf("expected busy rejection, got %v", err)
	}
}

func TestLogoutClearsLocalStateEvenWhenUpstreamFails(t *testing.T) {
	fake := &fakeUpstream{
		responses: map[string]any{"POST /login": map[string]any{"token": "tok-1"}},
		errors:    map[string]error{"POST /logout": pkgerrors.New(pkgerrors.CodeNetwork, "down")},
	}
	svc, tokens := newService(t, fake)

	if _, err := svc.Login(context.Background(), sid, "CMP", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	svc.Logout(context.Background(), sid)

	if _, err := tokens.Get(context.Background(), sid); err == nil {
		t.Fatalf("token survived logout")
	}
	state, compagnie, _ := svc.Snapshot(sid)
	if state != StateUnauthenticated || compagnie != nil {
		t.Fatalf("state not cleared: %q %+v", state, compagnie)
	}
}

func TestResumeWithoutTokenIsQuietNoop(t *testing.T) {
	fake := &fakeUpstream{}
	svc, _ := newService(t, fake)

	compagnie, err := svc.Resume(context.Background(), sid)
	if err != nil || compagnie != nil {
		t.Fatalf("expected quiet no-op, got %v %v", compagnie, err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("resume without token must not call upstream: %v", fake.calls)
	}
}

func TestResumeAuthFailureClearsToken(t *testing.T) {
	fake := &fakeUpstream{errors: map[string]error{
		"GET /type-categories": pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthenticated."),
	}}
	svc, tokens := newService(t, fake)
	tokens.Put(context.Background(), sid, "stale-token")

	_, err := svc.Resume(context.Background(), sid)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeSessionExpired {
		t.Fatalf("expected session-expired, got %v", err)
	}
	if _, err := tokens.Get(context.Background(), sid); err == nil {
		t.Fatalf("stale token must be cleared on 401/403")
	}
}

func TestResumeTransientFailureRetainsToken(t *testing.T) {
	fake := &fakeUpstream{errors: map[string]error{
		"GET /type-categories": pkgerrors.New(pkgerrors.CodeNetwork, "timeout"),
	}}
	svc, tokens := newService(t, fake)
	tokens.Put(context.Background(), sid, "good-token")

	_, err := svc.Resume(context.Background(), sid)
	if !pkgerrors.IsNetwork(err) {
		t.Fatalf("expected network error surfaced, got %v", err)
	}
	token, getErr := tokens.Get(context.Background(), sid)
	if getErr != nil || token != "good-token" {
		t.Fatalf("token must survive transient failures: %q %v", token, getErr)
	}
}

func TestUpdateProfileRequiresToken(t *testing.T) {
	svc, _ := newService(t, &fakeUpstream{})

	_, err := svc.UpdateProfile(context.Background(), sid, ProfileInput{Nom: "New"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateProfileMergesResponse(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"POST /login":  map[string]any{"token": "tok-1", "compagnie": map[string]any{"id": 4, "nom": "Old"}},
		"PUT /profile": map[string]any{"compagnie": map[string]any{"id": 4, "nom": "New"}},
	}}
	svc, _ := newService(t, fake)

	if _, err := svc.Login(context.Background(), sid, "CMP", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	updated, err := svc.UpdateProfile(context.Background(), sid, ProfileInput{Nom: "New"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Nom != "New" {
		t.Fatalf("profile not merged: %+v", updated)
	}

	_, cached, _ := svc.Snapshot(sid)
	if cached.Nom != "New" {
		t.Fatalf("cached compagnie not updated: %+v", cached)
	}
}

func TestRegisterEstablishesNoSession(t *testing.T) {
	fake := &fakeUpstream{responses: map[string]any{
		"POST /Inscription": map[string]any{"message": "created", "CMPID": "CMP-0099"},
	}}
	svc, tokens := newService(t, fake)

	resp, err := svc.Register(context.Background(), RegisterInput{Nom: "Chez Awa", Email: "a@b.cm", TypeCategorieID: 1})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.CMPID != "CMP-0099" {
		t.Fatalf("generated identifier not returned: %+v", resp)
	}
	if _, err := tokens.Get(context.Background(), sid); err == nil {
		t.Fatalf("register must not create a session")
	}
}
