package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := New(http.StatusConflict, "conflict", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
	var ae *Error
	if !errors.As(fmt.Errorf("wrapped: %w", err), &ae) {
		t.Fatal("expected errors.As to find *Error")
	}
	if ae.Status != http.StatusConflict || ae.Code != "conflict" {
		t.Fatalf("got %+v", ae)
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(0, "", errors.New("boom")).Error(); got != "boom" {
		t.Fatalf("got %q", got)
	}
	if got := New(0, "rate_limited", nil).Error(); got != "rate_limited" {
		t.Fatalf("got %q", got)
	}
	if got := New(418, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("got %q", got)
	}
	if got := (*Error)(nil).Error(); got != "" {
		t.Fatalf("got %q", got)
	}
}
