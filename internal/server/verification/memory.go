package verification

import (
	"context"
	"sync"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/shared"
)

// MemoryService is an in-process Service used for local development and
// tests. Codes are single-use and never delivered anywhere.
type MemoryService struct {
	mu    sync.Mutex
	codes map[string]issued // identity -> issued code
}

type issued struct {
	code    string
	purpose string
}

func NewMemoryService() *MemoryService {
	return &MemoryService{codes: make(map[string]issued)}
}

func (s *MemoryService) CreateCode(ctx context.Context, identity, purpose string) (string, error) {
	code, err := shared.MakeRandHexString(3)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[identity] = issued{code: code, purpose: purpose}
	return code, nil
}

func (s *MemoryService) SendCode(ctx context.Context, identity, code, purpose string) (bool, error) {
	// nothing to deliver in-process
	return true, nil
}

func (s *MemoryService) VerifyCode(ctx context.Context, identity, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iss, ok := s.codes[identity]
	if !ok || iss.code != code {
		return "", common.ErrorNotFound
	}
	delete(s.codes, identity)
	return iss.purpose, nil
}
