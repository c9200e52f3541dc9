// Package plan holds the static tier catalog: the mapping from a subscription
// tier to its price and entitlement set.
//
// The catalog is loaded exactly once at process start from a Source (built-in
// defaults, a YAML file, or any custom implementation) and is immutable
// afterwards, so it can be shared freely between goroutines and passed
// explicitly to whatever needs to evaluate entitlements. There is no ambient
// global table.
package plan
