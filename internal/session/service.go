// Package session owns the merchant authentication state for each browser
// session: the state machine, the cached compagnie payload, and the durable
// bearer token that survives reloads.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/yannickabena/mboa-storefront/internal/categories"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
	"github.com/yannickabena/mboa-storefront/pkg/tokenstore"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateLoggingOut      State = "logging_out"
)

// Categorie is the merchant's business-type reference as the upstream
// returns it.
type Categorie struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}

// Compagnie is the merchant account payload. Field names follow the
// upstream wire format.
type Compagnie struct {
	ID              int64      `json:"id"`
	Nom             string     `json:"nom"`
	Email           string     `json:"email"`
	CMPID           string     `json:"CMPID"`
	TypeCategorieID int64      `json:"type_categorie_id"`
	Categorie       *Categorie `json:"categorie,omitempty"`
}

// CategoryRef extracts the hints the dashboard resolver needs.
func (c *Compagnie) CategoryRef() categories.CompanyRef {
	if c == nil {
		return categories.CompanyRef{}
	}
	ref := categories.CompanyRef{TypeCategoryID: c.TypeCategorieID}
	if c.Categorie != nil {
		ref.CategoryID = c.Categorie.ID
		ref.CategoryName = c.Categorie.Nom
	}
	return ref
}

// RegisterInput is the registration payload. Registration never
// establishes a session; the caller navigates to login afterwards.
type RegisterInput struct {
	Nom             string `json:"nom"`
	Email           string `json:"email"`
	TypeCategorieID int64  `json:"type_categorie_id"`
}

// ProfileInput is the partial profile update payload.
type ProfileInput struct {
	Nom   string `json:"nom,omitempty"`
	Email string `json:"email,omitempty"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	Compagnie *Compagnie `json:"compagnie"`
	Message   string     `json:"message"`
}

type profileResponse struct {
	Compagnie *Compagnie `json:"compagnie"`
}

// RegisterResult is what the upstream returns for a new account, notably
// the generated merchant identifier.
type RegisterResult struct {
	Message string `json:"message"`
	CMPID   string `json:"CMPID"`
}

type sessionState struct {
	state     State
	compagnie *Compagnie
	lastError string
}

// Service drives the per-session auth lifecycle against the upstream.
type Service struct {
	mu       sync.Mutex
	upstream upstream.Caller
	tokens   tokenstore.Store
	logg     *logger.Logger
	states   map[string]*sessionState
}

func NewService(up upstream.Caller, tokens tokenstore.Store, logg *logger.Logger) (*Service, error) {
	if up == nil {
		return nil, errors.New("session: upstream caller required")
	}
	if tokens == nil {
		return nil, errors.New("session: token store required")
	}
	return &Service{
		upstream: up,
		tokens:   tokens,
		logg:     logg,
		states:   make(map[string]*sessionState),
	}, nil
}

func (s *Service) stateFor(sessionID string) *sessionState {
	st, ok := s.states[sessionID]
	if !ok {
		st = &sessionState{state: StateUnauthenticated}
		s.states[sessionID] = st
	}
	return st
}

// Snapshot reports the current state, merchant payload and last error.
func (s *Service) Snapshot(sessionID string) (State, *Compagnie, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(sessionID)
	return st.state, st.compagnie, st.lastError
}

// Login posts credentials, durably stores the returned token and caches
// the compagnie payload. On failure the session stays unauthenticated and
// the error message is retrievable through Snapshot. Never retried.
func (s *Service) Login(ctx context.Context, sessionID, cmpid, motDePasse string) (*Compagnie, error) {
	s.mu.Lock()
	st := s.stateFor(sessionID)
	if st.state == StateAuthenticating {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeBusy, "a login is already in flight")
	}
	st.state = StateAuthenticating
	st.lastError = ""
	s.mu.Unlock()

	var resp loginResponse
	err := s.upstream.Do(ctx, http.MethodPost, "/login", map[string]string{
		"CMPID":        cmpid,
		"mot_de_passe": motDePasse,
	}, &resp)
	if err != nil {
		s.failLogin(sessionID, err)
		return nil, err
	}
	if resp.Token == "" {
		err := pkgerrors.New(pkgerrors.CodeUpstream, "login response missing token")
		s.failLogin(sessionID, err)
		return nil, err
	}

	if err := s.tokens.Put(ctx, sessionID, resp.Token); err != nil {
		err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing session token")
		s.failLogin(sessionID, err)
		return nil, err
	}

	s.mu.Lock()
	st = s.stateFor(sessionID)
	st.state = StateAuthenticated
	st.compagnie = resp.Compagnie
	st.lastError = ""
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(s.logg.WithSessionID(ctx, sessionID), "merchant logged in")
	}
	return resp.Compagnie, nil
}

func (s *Service) failLogin(sessionID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(sessionID)
	st.state = StateUnauthenticated
	st.compagnie = nil
	if typed := pkgerrors.As(err); typed != nil {
		st.lastError = typed.Message()
	} else {
		st.lastError = err.Error()
	}
}

// Logout invalidates the upstream token best-effort: a failed upstream
// call is ignored, local state and the durable token are always cleared.
func (s *Service) Logout(ctx context.Context, sessionID string) {
	s.mu.Lock()
	s.stateFor(sessionID).state = StateLoggingOut
	s.mu.Unlock()

	if token, err := s.tokens.Get(ctx, sessionID); err == nil && token != "" {
		callCtx := upstream.WithToken(ctx, token)
		if err := s.upstream.Do(callCtx, http.MethodPost, "/logout", nil, nil); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "server-side logout failed, clearing local session anyway")
		}
	}

	_ = s.tokens.Delete(ctx, sessionID)

	s.mu.Lock()
	st := s.stateFor(sessionID)
	st.state = StateUnauthenticated
	st.compagnie = nil
	st.lastError = ""
	s.mu.Unlock()
}

// Register creates a merchant account. No token is returned; the caller
// must navigate to login separately.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	var resp RegisterResult
	if err := s.upstream.Do(ctx, http.MethodPost, "/Inscription", input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile patches the merchant profile and merges the response into
// the cached payload. Authenticated only.
func (s *Service) UpdateProfile(ctx context.Context, sessionID string, input ProfileInput) (*Compagnie, error) {
	token, err := s.tokens.Get(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var resp profileResponse
	callCtx := upstream.WithToken(ctx, token)
	if err := s.upstream.Do(callCtx, http.MethodPut, "/profile", input, &resp); err != nil {
		if pkgerrors.IsAuth(err) {
			s.invalidate(ctx, sessionID, "session expired, please sign in again")
		}
		return nil, err
	}

	s.mu.Lock()
	st := s.stateFor(sessionID)
	if resp.Compagnie != nil {
		st.compagnie = resp.Compagnie
	}
	updated := st.compagnie
	s.mu.Unlock()

	return updated, nil
}

// Resume verifies a durable token left over from a previous visit.
// A 401/403 clears the token and surfaces "session expired"; any other
// failure keeps the token — flaky connectivity must not log the user out.
func (s *Service) Resume(ctx context.Context, sessionID string) (*Compagnie, error) {
	token, err := s.tokens.Get(ctx, sessionID)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading session token")
	}

	// The endpoint's payload is the public category table; here it serves
	// purely as a token-validity probe, so the body is ignored.
	callCtx := upstream.WithToken(ctx, token)
	if err := s.upstream.Do(callCtx, http.MethodGet, "/type-categories", nil, nil); err != nil {
		if pkgerrors.IsAuth(err) {
			s.invalidate(ctx, sessionID, "session expired, please sign in again")
			return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired, please sign in again")
		}
		// Transient failure: keep the token, surface the error.
		s.mu.Lock()
		st := s.stateFor(sessionID)
		if typed := pkgerrors.As(err); typed != nil {
			st.lastError = typed.Message()
		}
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	st := s.stateFor(sessionID)
	st.state = StateAuthenticated
	if st.compagnie == nil {
		// Token is live but the merchant payload is gone (process restart).
		// The profile fields refill on the next login or profile fetch.
		st.compagnie = &Compagnie{}
	}
	st.lastError = ""
	compagnie := st.compagnie
	s.mu.Unlock()

	return compagnie, nil
}

func (s *Service) invalidate(ctx context.Context, sessionID, message string) {
	_ = s.tokens.Delete(ctx, sessionID)
	s.mu.Lock()
	st := s.stateFor(sessionID)
	st.state = StateUnauthenticated
	st.compagnie = nil
	st.lastError = message
	s.mu.Unlock()
}

// Token returns the durable bearer token for the session, when present.
func (s *Service) Token(ctx context.Context, sessionID string) (string, bool) {
	token, err := s.tokens.Get(ctx, sessionID)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// WithToken stamps the session's bearer token onto the context when one
// exists; other services use this before calling the upstream.
func (s *Service) WithToken(ctx context.Context, sessionID string) context.Context {
	if token, ok := s.Token(ctx, sessionID); ok {
		return upstream.WithToken(ctx, token)
	}
	return ctx
}
