// Package verification defines the boundary to the external
// code-verification collaborator (code creation, delivery and checking).
// The core never inspects how codes are delivered; it only consumes this
// interface.
package verification

import "context"

// Service is the external verification collaborator.
type Service interface {
	// CreateCode issues a fresh code for identity and purpose.
	CreateCode(ctx context.Context, identity, purpose string) (string, error)
	// SendCode delivers the code to the identity. Returns whether delivery
	// was accepted.
	SendCode(ctx context.Context, identity, code, purpose string) (bool, error)
	// VerifyCode checks a submitted code and returns the purpose it was
	// issued for, or common.ErrorNotFound when the code does not match.
	VerifyCode(ctx context.Context, identity, code string) (string, error)
}
