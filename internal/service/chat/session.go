package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/chat-widget/backend/internal/model/chat"
)

const missingCredentialMessage = "an API key is required before sending a message"

// Session owns one browser session's transcript and credential.
type Session struct {
	id            string
	model         string
	createdAt     time.Time
	provider      CompletionProvider
	replayHistory bool

	// submitMu keeps submissions strictly sequential; mu guards the fields below.
	submitMu   sync.Mutex
	mu         sync.RWMutex
	credential string
	transcript []chat.Message
	// epoch changes on every Clear so a reply in flight is not attached to a fresh transcript.
	epoch uint64
}

// NewSession creates an empty session bound to provider.
func NewSession(provider CompletionProvider, opts Options) *Session {
	return &Session{
		id:            uuid.NewString(),
		model:         opts.Model,
		createdAt:     time.Now().UTC(),
		provider:      provider,
		replayHistory: opts.ReplayHistory,
		transcript:    make([]chat.Message, 0, 16),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetCredential replaces the credential used when Submit is called without one.
func (s *Session) SetCredential(credential string) {
	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
}

// Credential returns the stored credential in clear text. Do not log it.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Submit records prompt as a user message and asks the provider for a reply.
//
// The user message is kept even when the call fails, so the transcript may
// end with an unanswered question. A missing credential fails with
// KindMissingCredential before any network call; provider failures come back
// as KindProviderError and leave no assistant message behind.
func (s *Session) Submit(ctx context.Context, prompt, credential string) (chat.Message, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.mu.Lock()
	history := s.replayLocked()
	s.transcript = append(s.transcript, newMessage(chat.RoleUser, prompt))
	epoch := s.epoch
	s.mu.Unlock()

	if credential == "" {
		log.Printf("[chat] rejected submission without credential session=%s", s.id)
		return chat.Message{}, newError(KindMissingCredential, missingCredentialMessage, nil)
	}

	reply, err := s.provider.Generate(ctx, CompletionRequest{
		Prompt:     prompt,
		Credential: credential,
		History:    history,
	})
	if err != nil {
		log.Printf("[chat] provider call failed session=%s: %v", s.id, err)
		return chat.Message{}, newError(KindProviderError, err.Error(), err)
	}

	assistant := newMessage(chat.RoleAssistant, reply)

	s.mu.Lock()
	if s.epoch == epoch {
		s.transcript = append(s.transcript, assistant)
	} else {
		log.Printf("[chat] transcript cleared during call, dropping reply session=%s", s.id)
	}
	s.mu.Unlock()

	log.Printf("[chat] reply stored session=%s length=%d", s.id, len(reply))
	return assistant, nil
}

// Clear empties the transcript.
func (s *Session) Clear() {
	s.mu.Lock()
	s.transcript = make([]chat.Message, 0, 16)
	s.epoch++
	s.mu.Unlock()
}

// History returns a copy of the transcript in chronological order.
func (s *Session) History() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}

// View describes the session for clients, with the credential masked.
func (s *Session) View() chat.SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return chat.SessionView{
		ID:            s.id,
		Model:         s.model,
		Credential:    chat.MaskCredential(s.credential),
		HasCredential: s.credential != "",
		MessageCount:  len(s.transcript),
		CreatedAt:     s.createdAt,
	}
}

// replayLocked returns the answered turns of the transcript. A user message
// that never got a reply is skipped. Callers must hold mu.
func (s *Session) replayLocked() []chat.Message {
	if !s.replayHistory || len(s.transcript) == 0 {
		return nil
	}

	history := make([]chat.Message, 0, len(s.transcript))
	for i, msg := range s.transcript {
		if msg.Role == chat.RoleUser {
			if i+1 >= len(s.transcript) || s.transcript[i+1].Role != chat.RoleAssistant {
				continue
			}
		}
		history = append(history, msg)
	}
	return history
}

func newMessage(role chat.Role, content string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
