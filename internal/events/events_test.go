package events

import (
	"context"
	"errors"
	"testing"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSave_OrderAndStop(t *testing.T) {
	var calls []string
	hooks := []SaveHook{
		func(context.Context, *SaveEvent) error { calls = append(calls, "first"); return nil },
		func(context.Context, *SaveEvent) error { calls = append(calls, "second"); return errors.New("stop") },
		func(context.Context, *SaveEvent) error { calls = append(calls, "third"); return nil },
	}

	err := RunSave(context.Background(), hooks, &SaveEvent{})

	assert.EqualError(t, err, "stop")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRunDelete(t *testing.T) {
	var got string
	hooks := []DeleteHook{func(_ context.Context, e *DeleteEvent) error {
		got = e.Sms.Name
		return nil
	}}

	require.NoError(t, RunDelete(context.Background(), hooks, &DeleteEvent{Sms: &models.Sms{Name: "promo"}}))
	assert.Equal(t, "promo", got)
}

func TestNotifySave_RunsEveryHook(t *testing.T) {
	var calls []string
	hooks := []SaveHook{
		func(context.Context, *SaveEvent) error { calls = append(calls, "audit"); return errors.New("audit insert failed") },
		func(context.Context, *SaveEvent) error { calls = append(calls, "live"); return nil },
		func(context.Context, *SaveEvent) error { calls = append(calls, "other"); return errors.New("other failed") },
	}

	err := NotifySave(context.Background(), hooks, &SaveEvent{})

	assert.ErrorContains(t, err, "audit insert failed")
	assert.ErrorContains(t, err, "other failed")
	assert.Equal(t, []string{"audit", "live", "other"}, calls)
}

func TestNotifyDelete_RunsEveryHook(t *testing.T) {
	calls := 0
	hooks := []DeleteHook{
		func(context.Context, *DeleteEvent) error { calls++; return errors.New("audit insert failed") },
		func(context.Context, *DeleteEvent) error { calls++; return nil },
	}

	err := NotifyDelete(context.Background(), hooks, &DeleteEvent{Sms: &models.Sms{}})

	assert.EqualError(t, err, "audit insert failed")
	assert.Equal(t, 2, calls)
	assert.NoError(t, NotifyDelete(context.Background(), nil, &DeleteEvent{}))
}

func TestTokenReplacement(t *testing.T) {
	hook := TokenReplacement(tokens.NewPass(nil, tokens.ContactProvider{}))
	e := &SendEvent{
		Content:      "Hi {contactfield=firstname|there}",
		TokenContext: &tokens.Context{Contact: &models.Contact{FirstName: "Dana"}},
	}

	require.NoError(t, RunSend(context.Background(), []SendHook{hook}, e))
	assert.Equal(t, "Hi Dana", e.Content)
}
