package domain

// ProviderOption describes one entry of the provider selector.
type ProviderOption struct {
	ID          Provider `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	KeyLabel    string   `json:"keyLabel"`
	HasKey      bool     `json:"hasKey"`
	Selected    bool     `json:"selected"`
}
