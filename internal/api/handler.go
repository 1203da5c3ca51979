package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"medremind-backend/internal/command"
	"medremind-backend/internal/reminder"
	"medremind-backend/internal/store"
)

// MessageHandler turns an inbound message into its reply transcript.
type MessageHandler interface {
	Handle(ctx context.Context, identity, body string) command.Transcript
}

// ReminderLister lists the pending reminders of an identity.
type ReminderLister interface {
	PendingFor(identity string) []reminder.Job
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	messages  MessageHandler
	reporter  command.Reporter
	reminders ReminderLister
	webpush   *webpush.Options
	prefix    string
	seen      *cache.Cache
}

// NewHandler creates a new API handler. prefix is stripped from webhook
// sender addresses; webhook replies are remembered by MessageSid for
// dedupeTTL.
func NewHandler(s store.Store, messages MessageHandler, reporter command.Reporter, reminders ReminderLister, webpushOptions *webpush.Options, prefix string, dedupeTTL time.Duration) *Handler {
	return &Handler{
		store:     s,
		messages:  messages,
		reporter:  reporter,
		reminders: reminders,
		webpush:   webpushOptions,
		prefix:    prefix,
		seen:      cache.New(dedupeTTL, 2*dedupeTTL),
	}
}
