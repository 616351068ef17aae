package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/MoCipher/EmailAlies/internal/common"
)

func TestMemoryService_VerifyRoundTrip(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	code, err := s.CreateCode(ctx, "a@x.com", "onboarding")
	if err != nil {
		t.Fatalf("CreateCode error: %v", err)
	}

	delivered, err := s.SendCode(ctx, "a@x.com", code, "onboarding")
	if err != nil || !delivered {
		t.Fatalf("SendCode = (%v, %v), want (true, nil)", delivered, err)
	}

	purpose, err := s.VerifyCode(ctx, "a@x.com", code)
	if err != nil {
		t.Fatalf("VerifyCode error: %v", err)
	}
	if purpose != "onboarding" {
		t.Fatalf("unexpected purpose %q", purpose)
	}

	// codes are single-use
	if _, err := s.VerifyCode(ctx, "a@x.com", code); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound on reuse, got %v", err)
	}
}

func TestMemoryService_WrongCode(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	if _, err := s.CreateCode(ctx, "a@x.com", "onboarding"); err != nil {
		t.Fatalf("CreateCode error: %v", err)
	}

	if _, err := s.VerifyCode(ctx, "a@x.com", "000000"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
