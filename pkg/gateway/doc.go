// Package gateway abstracts the external payment provider behind a small
// Provider interface so the billing engine never depends on a vendor SDK.
// Two implementations ship here: a JSON-over-HTTP client for hosted gateways
// exposing customer/subscription/payment resources, and a Paddle adapter.
package gateway
