package bootstrap

import (
	"github.com/samber/lo"

	"speech-illustrator/internal/domain"
)

// providerDetails describes each provider in the selector.
var providerDetails = map[domain.Provider]domain.ProviderOption{
	domain.ProviderOpenAI: {
		Description: "DALL-E 3, one 1024x1024 image per recording.",
		KeyLabel:    "OpenAI API key",
	},
	domain.ProviderStability: {
		Description: "Stable Diffusion XL text-to-image.",
		KeyLabel:    "StabilityAI API key",
	},
}

// GetProviders lists the registered image providers with key presence and selection.
func (a *App) GetProviders() []domain.ProviderOption {
	selected := a.Session.Provider()
	snapshot := a.Session.Snapshot(domain.Run{})

	return lo.Map(newRegistry(a.currentSettings()).Providers(), func(provider domain.Provider, _ int) domain.ProviderOption {
		option := providerDetails[provider]
		option.ID = provider
		option.Name = provider.DisplayName()
		option.HasKey = snapshot.Credentials[provider]
		option.Selected = provider == selected
		return option
	})
}
