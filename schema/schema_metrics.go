package schema

// RegistryEntry describes one catalog indicator for display purposes.
type RegistryEntry struct {
	Domain    Domain     `json:"domain"`
	Indicator string     `json:"indicator"`
	Label     string     `json:"label"`
	Kind      RuleKind   `json:"kind"`
	Reverse   bool       `json:"reverse"`
	MinAge    int        `json:"min_age,omitempty"`
	Scale     float64    `json:"scale,omitempty"`     // Only used for supply indicators
	Benchmark *Benchmark `json:"benchmark,omitempty"` // Active thresholds, including overrides
}

// RegistryRenderModel contains all processed data needed for displaying the catalog.
type RegistryRenderModel struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Entries     []RegistryEntry `json:"entries"`
}
