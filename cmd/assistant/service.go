package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pimtong/fieldworks-backend/internal/assistant"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
	"github.com/pimtong/fieldworks-backend/pkg/telegram"
)

type transport interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendMessage(ctx context.Context, params telegram.SendMessageParams) error
}

// Service drives the long-poll loop: fetch updates, dispatch each message,
// send the replies back.
type Service struct {
	transport transport
	assistant assistant.Service
	cfg       config.AssistantConfig
	logg      *logger.Logger

	offset int64
}

func NewService(t transport, dispatcher assistant.Service, cfg config.AssistantConfig, logg *logger.Logger) (*Service, error) {
	if t == nil {
		return nil, errors.New("transport is required")
	}
	if dispatcher == nil {
		return nil, errors.New("assistant dispatcher is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{transport: t, assistant: dispatcher, cfg: cfg, logg: logg}, nil
}

// Run polls until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := s.transport.GetUpdates(ctx, s.offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logg.Error(ctx, "poll updates", err)
			s.backoff(ctx, err)
			continue
		}

		// Updates in one batch are independent conversations and are
		// handled concurrently. The next poll acknowledges the whole batch.
		var wg sync.WaitGroup
		for _, update := range updates {
			wg.Add(1)
			go func(u telegram.Update) {
				defer wg.Done()
				s.handleUpdate(ctx, u)
			}(update)
			if update.UpdateID >= s.offset {
				s.offset = update.UpdateID + 1
			}
		}
		wg.Wait()
	}
}

func (s *Service) handleUpdate(ctx context.Context, update telegram.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message

	handleCtx := ctx
	if s.cfg.HandleTimeout > 0 {
		var cancel context.CancelFunc
		handleCtx, cancel = context.WithTimeout(ctx, s.cfg.HandleTimeout)
		defer cancel()
	}

	replies, err := s.assistant.HandleMessage(handleCtx, msg.Chat.ID, msg.Text)
	if err != nil {
		s.logg.Error(handleCtx, "handle message", err)
		return
	}

	for _, reply := range replies {
		params := telegram.SendMessageParams{
			ChatID:    msg.Chat.ID,
			Text:      reply.Text,
			ParseMode: telegram.ParseModeMarkdown,
		}
		if reply.RemoveKeyboard {
			params.ReplyMarkup = telegram.ReplyKeyboardRemove{RemoveKeyboard: true}
		}
		if err := s.transport.SendMessage(handleCtx, params); err != nil {
			s.logg.Error(handleCtx, "send reply", err)
		}
	}
}

// backoff sleeps long enough to ride out transient transport failures.
// Throttling responses wait longer than plain errors.
func (s *Service) backoff(ctx context.Context, err error) {
	wait := 2 * time.Second
	if pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		wait = 10 * time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
