// Package checkout drives the order stepper: cart → customer form → OTP
// confirmation → receipt. The upstream owns pricing, OTP issuance and
// receipt numbering; this service guards the local steps.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/yannickabena/mboa-storefront/internal/cart"
	pkgerrors "github.com/yannickabena/mboa-storefront/pkg/errors"
	"github.com/yannickabena/mboa-storefront/pkg/upstream"
)

// OrderForm is the customer detail step of the checkout.
type OrderForm struct {
	ClientNom        string `json:"client_nom"`
	ClientTelephone  string `json:"client_telephone"`
	Livraison        bool   `json:"livraison"`
	AdresseLivraison string `json:"adresse_livraison,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// SubmitResult carries the transient server references the OTP step needs.
type SubmitResult struct {
	Message       string `json:"message"`
	TransactionID int64  `json:"transaction_id"`
	CommandeID    int64  `json:"commande_id"`
}

type submitResponse struct {
	Message     string `json:"message"`
	Transaction struct {
		ID int64 `json:"id"`
	} `json:"transaction"`
	Commande struct {
		ID int64 `json:"id"`
	} `json:"commande"`
}

type verifyOTPResponse struct {
	Message string `json:"message"`
}

type pendingOrder struct {
	transactionID int64
	commandeID    int64
}

type Service struct {
	mu       sync.Mutex
	upstream upstream.Caller
	carts    *cart.Store
	pending  map[string]pendingOrder
	inFlight map[string]bool
}

func NewService(up upstream.Caller, carts *cart.Store) (*Service, error) {
	if up == nil {
		return nil, errors.New("checkout: upstream caller required")
	}
	if carts == nil {
		return nil, errors.New("checkout: cart store required")
	}
	return &Service{
		upstream: up,
		carts:    carts,
		pending:  make(map[string]pendingOrder),
		inFlight: make(map[string]bool),
	}, nil
}

// acquire rejects a second submit while one is in flight for the session.
func (s *Service) acquire(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sessionID] {
		return pkgerrors.New(pkgerrors.CodeBusy, "a checkout request is already in flight")
	}
	s.inFlight[sessionID] = true
	return nil
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

// Submit places the order for the session's cart. An empty cart is a local
// business-rule rejection: no upstream call is made.
func (s *Service) Submit(ctx context.Context, sessionID string, form OrderForm) (*SubmitResult, error) {
	if err := s.acquire(sessionID); err != nil {
		return nil, err
	}
	defer s.release(sessionID)

	items := s.carts.Items(sessionID)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}

	// The upstream order endpoint takes a single product per commande.
	line := items[0]
	payload := map[string]any{
		"produit_id":        line.ProductID,
		"compagnie_id":      line.CompanyID,
		"quantite":          line.Quantity,
		"client_nom":        form.ClientNom,
		"client_telephone":  form.ClientTelephone,
		"livraison":         form.Livraison,
		"adresse_livraison": form.AdresseLivraison,
		"notes":             form.Notes,
	}

	var resp submitResponse
	if err := s.upstream.Do(ctx, http.MethodPost, "/commandes/vetement", payload, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending[sessionID] = pendingOrder{
		transactionID: resp.Transaction.ID,
		commandeID:    resp.Commande.ID,
	}
	s.mu.Unlock()

	return &SubmitResult{
		Message:       resp.Message,
		TransactionID: resp.Transaction.ID,
		CommandeID:    resp.Commande.ID,
	}, nil
}

// VerifyOTP confirms the mobile-money payment. On success the cart is
// cleared and the pending references dropped.
func (s *Service) VerifyOTP(ctx context.Context, sessionID, otp string) (*SubmitResult, error) {
	if err := s.acquire(sessionID); err != nil {
		return nil, err
	}
	defer s.release(sessionID)

	s.mu.Lock()
	order, ok := s.pending[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no order awaiting confirmation")
	}

	path := fmt.Sprintf("/commandes/vetement/transaction/%d/verifier-otp", order.transactionID)
	var resp verifyOTPResponse
	if err := s.upstream.Do(ctx, http.MethodPost, path, map[string]string{"otp": otp}, &resp); err != nil {
		return nil, err
	}

	s.carts.Clear(sessionID)
	s.mu.Lock()
	delete(s.pending, sessionID)
	s.mu.Unlock()

	return &SubmitResult{
		Message:       resp.Message,
		TransactionID: order.transactionID,
		CommandeID:    order.commandeID,
	}, nil
}

// Reset abandons the pending order, returning the stepper to the cart.
func (s *Service) Reset(sessionID string) {
	s.mu.Lock()
	delete(s.pending, sessionID)
	s.mu.Unlock()
}

// Receipt streams the downloadable receipt for a finalized order.
func (s *Service) Receipt(ctx context.Context, commandeID int64) (io.ReadCloser, string, error) {
	return s.upstream.Download(ctx, fmt.Sprintf("/commandes/%d/recu", commandeID))
}
