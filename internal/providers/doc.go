// Package providers holds the plumbing shared by the external legal
// sources: the curated fallback set, circuit breaking, request pacing and
// JSON transport.
//
// Every provider answers a search. When credentials are missing, the
// breaker is open or the live call fails, the provider serves its curated
// set instead of an error so aggregation stays deterministic.
package providers
