// Package subscription implements the billing subscription lifecycle: the
// state machine that moves an account between none, pending, active, overdue
// and canceled, the webhook ingestion guard that makes at-least-once
// provider deliveries safe to apply, and the checkout orchestrator that
// drives the payment gateway.
//
// # Transition discipline
//
// All transitions funnel through Apply, a pure function of (record, event)
// executed inside the account store's per-id atomic Update. Apply is
// idempotent by construction: replaying an event reproduces the same state,
// an event older than the newest applied one is ignored, and a
// cancellation-class event wins over an earlier confirmation by recency.
// Because of this, webhook dedup is an optimization; correctness never
// depends on it.
//
// # Webhook guard
//
// HandleWebhook authenticates the shared-secret credential in constant time
// and rejects failures permanently. Everything past authentication is
// acknowledged to the provider: unknown subscriptions, duplicates, and
// unknown event types are logged and dropped, because a provider retry can
// never make them meaningful.
package subscription
