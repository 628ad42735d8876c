package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeNetwork, cause, "calling upstream")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeNetwork {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeValidation, "bad payload").WithDetails(map[string]string{"cmpid": "invalid"})
	wrapped := fmt.Errorf("handling login: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatalf("expected typed error in chain")
	}
	if typed.FieldErrors()["cmpid"] != "invalid" {
		t.Fatalf("field errors lost in chain: %v", typed.FieldErrors())
	}
}

func TestPolicyTable(t *testing.T) {
	cases := []struct {
		code         Code
		status       int
		forcesLogout bool
	}{
		{CodeValidation, http.StatusUnprocessableEntity, false},
		{CodeUnauthorized, http.StatusUnauthorized, true},
		{CodeSessionExpired, http.StatusUnauthorized, true},
		{CodeNetwork, http.StatusServiceUnavailable, false},
		{CodeUpstream, http.StatusBadGateway, false},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.ForcesLogout != tc.forcesLogout {
			t.Fatalf("%s: expected forcesLogout=%v", tc.code, tc.forcesLogout)
		}
	}
}

func TestIsNetworkDoesNotForceLogout(t *testing.T) {
	err := New(CodeNetwork, "timeout")
	if !IsNetwork(err) {
		t.Fatalf("expected network classification")
	}
	if IsAuth(err) {
		t.Fatalf("a connectivity failure must never invalidate the session")
	}
}

func TestUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}
