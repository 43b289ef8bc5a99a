package provider

import (
	"context"

	"StockPulse/internal/domain/models"
)

// Descriptor identifies a provider and its scheduling attributes.
type Descriptor struct {
	// Name is the stable identifier used in status and reset APIs.
	Name string
	// Priority orders providers, lowest first.
	Priority int
	// RequiresAPIKey marks providers that stay disabled without credentials.
	RequiresAPIKey bool
	// Markets lists the exchanges the provider covers.
	Markets []string
	// Pinned providers are exempt from the error breaker (the local catalog).
	Pinned bool
}

// Provider serves stock records for a set of search terms. An empty
// term slice means "list everything you have".
type Provider interface {
	Descriptor() Descriptor
	Fetch(ctx context.Context, terms []string) ([]models.StockRecord, error)
}

// HealthChecker is implemented by providers that can be probed without
// affecting their breaker state.
type HealthChecker interface {
	CheckHealth(ctx context.Context, symbol string) error
}
