package chat_test

import (
	"context"
	"errors"
	"testing"

	chat "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
)

func newTestService() *chat.Service {
	return chat.NewService(&stubProvider{reply: "ok"}, chat.Options{Model: "gemini-3-flash-preview"})
}

func TestServiceGetSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "valid-key")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID() != session.ID() {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID(), session.ID())
	}
	if got.Credential() != "valid-key" {
		t.Fatal("expected credential to be stored on the session")
	}
	if got.View().Model != "gemini-3-flash-preview" {
		t.Fatalf("unexpected model: %s", got.View().Model)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, _ := svc.CreateSession(ctx, "key-one")
	second, _ := svc.CreateSession(ctx, "")

	if _, err := first.Submit(ctx, "hello", first.Credential()); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if len(second.History()) != 0 {
		t.Fatalf("expected second session to stay empty, got %d messages", len(second.History()))
	}
	if second.Credential() != "" {
		t.Fatal("expected second session to have no credential")
	}
}

func TestServiceCloseSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "valid-key")
	if _, err := session.Submit(ctx, "hello", "valid-key"); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if err := svc.CloseSession(ctx, session.ID()); err != nil {
		t.Fatalf("CloseSession err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID()); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected closed session to be gone, got %v", err)
	}
	if session.Credential() != "" || len(session.History()) != 0 {
		t.Fatal("expected closed session to drop its credential and transcript")
	}
	if err := svc.CloseSession(ctx, session.ID()); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected second close to fail, got %v", err)
	}
}
