package notify_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liguepro/billing/pkg/notify"
	"github.com/liguepro/billing/pkg/plan"
)

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := notify.NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	id := uuid.New()
	require.NoError(t, n.Notify(context.Background(), notify.Notification{
		Kind:      notify.KindActivated,
		AccountID: id,
		Tier:      plan.TierPro,
	}))

	out := buf.String()
	assert.Contains(t, out, "subscription_activated")
	assert.Contains(t, out, id.String())
	assert.Contains(t, out, "pro")
}

func TestNewPostmarkNotifier_Validation(t *testing.T) {
	t.Parallel()

	resolve := func(ctx context.Context, accountID uuid.UUID) (string, error) {
		return "user@example.com", nil
	}
	valid := notify.Config{
		PostmarkServerToken:  "srv",
		PostmarkAccountToken: "acc",
		SenderEmail:          "billing@example.com",
		SupportEmail:         "support@example.com",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		n, err := notify.NewPostmarkNotifier(valid, resolve)
		require.NoError(t, err)
		assert.NotNil(t, n)
	})

	t.Run("missing tokens", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.PostmarkServerToken = ""
		_, err := notify.NewPostmarkNotifier(cfg, resolve)
		assert.Error(t, err)
	})

	t.Run("missing resolver", func(t *testing.T) {
		t.Parallel()
		_, err := notify.NewPostmarkNotifier(valid, nil)
		assert.Error(t, err)
	})
}
