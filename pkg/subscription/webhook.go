package subscription

import (
	"encoding/json"
	"errors"
	"time"
)

// webhookPayload mirrors the provider's delivery shape. Subscription events
// carry the correlation id at the top level (as a string or an object);
// payment events nest it under payment.
type webhookPayload struct {
	Event   string `json:"event"`
	Payment struct {
		ID           string `json:"id"`
		Subscription string `json:"subscription"`
	} `json:"payment"`
	Subscription json.RawMessage `json:"subscription"`
}

// ParseEvent decodes a raw webhook delivery into a normalized Event,
// stamping it with the ingestion time. Only genuinely undecodable payloads
// fail; unknown event types pass through for the transition layer to ignore.
func ParseEvent(payload []byte, receivedAt time.Time) (Event, error) {
	var raw webhookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, errors.Join(ErrMalformedEvent, err)
	}
	if raw.Event == "" {
		return Event{}, errors.Join(ErrMalformedEvent, errors.New("missing event field"))
	}

	subID := raw.Payment.Subscription
	if subID == "" {
		subID = subscriptionIDFrom(raw.Subscription)
	}

	return Event{
		Type:                   mapEventType(raw.Event),
		ProviderEvent:          raw.Event,
		ExternalSubscriptionID: subID,
		PaymentID:              raw.Payment.ID,
		ReceivedAt:             receivedAt.UTC(),
	}, nil
}

// subscriptionIDFrom accepts both encodings providers use for the top-level
// subscription field: a bare id string or an object with an id.
func subscriptionIDFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asObject struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.ID
	}
	return ""
}
