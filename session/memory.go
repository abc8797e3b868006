package session

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Tokens do not survive a restart.
type MemoryStore struct {
	opts Options

	mu     sync.Mutex
	tokens map[string]Token
	byUser map[string]map[string]struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts Options) (*MemoryStore, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &MemoryStore{
		opts:   opts,
		tokens: make(map[string]Token),
		byUser: make(map[string]map[string]struct{}),
	}, nil
}

func (s *MemoryStore) Issue(ctx context.Context, username string) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}
	tok, err := s.opts.newToken(username)
	if err != nil {
		return Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[tok.Value]; ok {
		return Token{}, ErrTokenCollision
	}
	s.tokens[tok.Value] = tok
	set, ok := s.byUser[username]
	if !ok {
		set = make(map[string]struct{})
		s.byUser[username] = set
	}
	set[tok.Value] = struct{}{}
	return tok, nil
}

func (s *MemoryStore) Validate(ctx context.Context, value string) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[value]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	if !Live(tok, s.opts.Now()) {
		s.removeLocked(tok)
		return Token{}, ErrTokenExpired
	}
	return tok, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[value]
	if !ok {
		return false, nil
	}
	s.removeLocked(tok)
	return true, nil
}

func (s *MemoryStore) RevokeUser(ctx context.Context, username string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.byUser[username]
	for value := range set {
		delete(s.tokens, value)
	}
	delete(s.byUser, username)
	return len(set), nil
}

func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	removed := 0
	for _, tok := range s.tokens {
		if !Live(tok, now) {
			s.removeLocked(tok)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens), nil
}

func (s *MemoryStore) removeLocked(tok Token) {
	delete(s.tokens, tok.Value)
	if set, ok := s.byUser[tok.Username]; ok {
		delete(set, tok.Value)
		if len(set) == 0 {
			delete(s.byUser, tok.Username)
		}
	}
}
