package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestVigilError(t *testing.T) {
	err := New(ErrCodeSessionNotFound, "session not found")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}

	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeSessionNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	detailed := err.WithDetail("session", "api").WithDetail("attempt", 2)
	if detailed.Details["session"] != "api" {
		t.Error("WithDetail should add details")
	}
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	inner := ConfigNotFound("/tmp/missing.json")
	outer := fmt.Errorf("loading registry: %w", inner)

	if GetCode(outer) != ErrCodeConfigNotFound {
		t.Errorf("expected %s, got %s", ErrCodeConfigNotFound, GetCode(outer))
	}
	if !IsConfiguration(outer) {
		t.Error("config not found should belong to the configuration family")
	}
	if IsConfiguration(SessionNotFound("api")) {
		t.Error("session not found is not a configuration error")
	}

	vErr, ok := As(outer)
	if !ok || vErr.Details["path"] != "/tmp/missing.json" {
		t.Error("As should find the wrapped VigilError")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := SessionNotFound("web")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}
	if err.Details["session"] != "web" {
		t.Error("SessionNotFound should include session detail")
	}

	err = Timeout("capture", 5*time.Second)
	if err.Code != ErrCodeTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeTimeout, err.Code)
	}
	if err.Details["timeout"] != "5s" {
		t.Error("Timeout should include timeout detail")
	}

	err = NotifyFailed("webhook", fmt.Errorf("status 500"))
	if err.Details["channel"] != "webhook" {
		t.Error("NotifyFailed should include channel detail")
	}
}
