package model

import "context"

// ── Collaborator Port Interfaces ──
// These interfaces decouple the analysis orchestrator from concrete
// market-data, narrative and journal implementations.

// MarketData fetches daily bars for one exact symbol format.
type MarketData interface {
	// FetchOHLCV returns up to days daily bars for symbolVariant.
	// An unknown symbol yields an empty series or an error; both mean
	// "try the next variant" to the caller.
	FetchOHLCV(ctx context.Context, symbolVariant string, days int) (*Series, error)
}

// Narrator produces a free-text analysis from computed technical data.
type Narrator interface {
	Narrate(ctx context.Context, tech *TechnicalData) (string, error)
}

// Journal durably records freshly computed analyses.
type Journal interface {
	// Record appends one entry.
	Record(ctx context.Context, e JournalEntry) error

	// History returns up to limit entries for userID, newest first.
	History(ctx context.Context, userID string, limit int) ([]JournalEntry, error)

	// Close releases underlying resources.
	Close() error
}
