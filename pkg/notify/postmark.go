package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Config holds the Postmark notifier configuration.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
}

var ErrFailedToSend = errors.New("failed to send notification")

type postmarkNotifier struct {
	client  *postmark.Client
	config  Config
	resolve RecipientResolver
}

// NewPostmarkNotifier creates a Postmark-backed billing notifier.
// The resolver supplies the recipient address since account records carry no
// contact details.
func NewPostmarkNotifier(cfg Config, resolve RecipientResolver) (Notifier, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, errors.New("notify: postmark tokens are required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("notify: SenderEmail is required")
	}
	if resolve == nil {
		return nil, errors.New("notify: RecipientResolver is required")
	}
	return &postmarkNotifier{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config:  cfg,
		resolve: resolve,
	}, nil
}

func (n *postmarkNotifier) Notify(ctx context.Context, notification Notification) error {
	recipient, err := n.resolve(ctx, notification.AccountID)
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}

	subject, body := render(notification)

	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:       n.config.SenderEmail,
		ReplyTo:    n.config.SupportEmail,
		To:         recipient,
		Subject:    subject,
		Tag:        string(notification.Kind),
		HTMLBody:   body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func render(n Notification) (subject, body string) {
	switch n.Kind {
	case KindActivated:
		subject = "Your subscription is active"
		body = fmt.Sprintf("<p>Your <strong>%s</strong> plan is now active. Welcome aboard!</p>", n.Tier)
	case KindOverdue:
		subject = "Payment overdue"
		body = "<p>We could not collect your last subscription payment. " +
			"Please settle the open charge to keep your plan benefits.</p>"
	case KindCanceled:
		subject = "Subscription canceled"
		body = "<p>Your subscription has been canceled and your profile moved to the free plan. " +
			"You can re-subscribe at any time.</p>"
	default:
		subject = "Billing update"
		body = "<p>There was an update to your billing subscription.</p>"
	}
	return subject, body
}
