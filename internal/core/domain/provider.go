package domain

// ProviderStatus is the availability of a retrieval provider.
type ProviderStatus string

const (
	// ProviderOnline means live calls are configured and succeeding.
	ProviderOnline ProviderStatus = "online"

	// ProviderLimited means only the curated fallback set is available.
	ProviderLimited ProviderStatus = "limited"

	// ProviderOffline means the provider cannot serve any results.
	ProviderOffline ProviderStatus = "offline"
)

// IsValid returns true if the status is recognised.
func (s ProviderStatus) IsValid() bool {
	switch s {
	case ProviderOnline, ProviderLimited, ProviderOffline:
		return true
	default:
		return false
	}
}

// ProviderHealth is the result of a provider health check.
type ProviderHealth struct {
	Provider string         `json:"provider"`
	Status   ProviderStatus `json:"status"`
	Message  string         `json:"message"`
}
