// Package courtlistener provides case law from the CourtListener REST API
// (v4). Requests authenticate with an API token; without one the provider
// serves a curated set of landmark opinions.
package courtlistener
