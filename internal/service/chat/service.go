package chat

import (
	"context"
	"errors"
	"log"
	"sync"
)

var ErrSessionNotFound = errors.New("session not found")

// Options configure every session created by a Service.
type Options struct {
	// Model is the fixed model identifier reported to clients.
	Model string
	// ReplayHistory also sends earlier answered turns with each prompt. Off by default.
	ReplayHistory bool
}

// Service keeps the live chat sessions of this process. Each session is an
// independent object; nothing is shared between them except the provider.
type Service struct {
	provider CompletionProvider
	opts     Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService bootstraps the in-memory session registry.
func NewService(provider CompletionProvider, opts Options) *Service {
	return &Service{
		provider: provider,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Model returns the model identifier used by every session.
func (s *Service) Model() string {
	return s.opts.Model
}

// CreateSession provisions an empty session. credential may be empty and set later.
func (s *Service) CreateSession(_ context.Context, credential string) (*Session, error) {
	session := NewSession(s.provider, s.opts)
	session.SetCredential(credential)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	log.Printf("[chat] session created session=%s", session.ID())
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// CloseSession tears a session down, discarding its transcript and credential.
func (s *Service) CloseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Clear()
	session.SetCredential("")
	log.Printf("[chat] session closed session=%s", sessionID)
	return nil
}
