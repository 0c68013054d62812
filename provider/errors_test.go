package provider

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderFailure(ProviderKhalti, "insufficient balance", 400, "insufficient_balance")
	want := "khalti: insufficient balance (provider, http 400)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	verr := NewValidationError(ProviderEsewa, "amount is required")
	want = "esewa: amount is required (validation)"
	if verr.Error() != want {
		t.Errorf("Error() = %q, want %q", verr.Error(), want)
	}
}

func TestNewNetworkErrorCodes(t *testing.T) {
	timeout := NewNetworkError(ProviderKhalti, &TimeoutError{URL: "https://dev.khalti.com/x", Timeout: time.Second})
	if timeout.Code != "timeout" {
		t.Errorf("timeout Code = %q, want \"timeout\"", timeout.Code)
	}
	if timeout.Kind != ErrKindNetwork {
		t.Errorf("timeout Kind = %q, want %q", timeout.Kind, ErrKindNetwork)
	}

	wrapped := NewNetworkError(ProviderKhalti, fmt.Errorf("call failed: %w", &TimeoutError{URL: "u", Timeout: time.Second}))
	if wrapped.Code != "timeout" {
		t.Errorf("wrapped timeout Code = %q, want \"timeout\"", wrapped.Code)
	}

	conn := NewNetworkError(ProviderStripe, errors.New("connection refused"))
	if conn.Code != "connection_failed" {
		t.Errorf("connection Code = %q, want \"connection_failed\"", conn.Code)
	}
}

func TestAsProviderError(t *testing.T) {
	orig := NewConfigError(ProviderStripe, "secret key is not configured")
	wrapped := fmt.Errorf("start donation: %w", orig)

	pe, ok := AsProviderError(wrapped)
	if !ok {
		t.Fatal("AsProviderError failed on wrapped error")
	}
	if pe.Kind != ErrKindConfig || pe.Provider != ProviderStripe {
		t.Errorf("unwrapped wrong error: %+v", pe)
	}

	if _, ok := AsProviderError(errors.New("plain")); ok {
		t.Error("AsProviderError matched a plain error")
	}
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{URL: "https://uat.esewa.com.np/epay/transrec", Timeout: 30 * time.Second}
	want := "request to https://uat.esewa.com.np/epay/transrec timed out after 30s"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
