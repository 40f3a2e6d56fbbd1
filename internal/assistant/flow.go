package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/redis"
)

// Login flow steps. The flow is a two-question exchange held in the keyed
// state store so an assistant restart does not strand the chat mid-login.
const (
	stepAwaitingUsername = "awaiting_username"
	stepAwaitingPassword = "awaiting_password"
)

type flowStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LoginFlowKey(chatID string) string
}

type loginState struct {
	Step     string `json:"step"`
	Username string `json:"username,omitempty"`
}

type loginFlow struct {
	store flowStore
	ttl   time.Duration
}

func newLoginFlow(store flowStore, ttl time.Duration) *loginFlow {
	return &loginFlow{store: store, ttl: ttl}
}

// Load returns the in-flight login state for the chat, or nil when the
// chat has no active flow.
func (f *loginFlow) Load(ctx context.Context, chatID string) (*loginState, error) {
	raw, err := f.store.Get(ctx, f.store.LoginFlowKey(chatID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var state loginState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// Unreadable state is dropped so the chat can restart cleanly.
		_ = f.Clear(ctx, chatID)
		return nil, nil
	}
	return &state, nil
}

// Save stores the state and refreshes the flow TTL.
func (f *loginFlow) Save(ctx context.Context, chatID string, state loginState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return f.store.Set(ctx, f.store.LoginFlowKey(chatID), string(raw), f.ttl)
}

// Clear removes the flow state for the chat.
func (f *loginFlow) Clear(ctx context.Context, chatID string) error {
	return f.store.Del(ctx, f.store.LoginFlowKey(chatID))
}
