package model

import "errors"

var (
	// ErrInvalidSymbol is returned for blank or malformed ticker symbols.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidAnalysisType is returned when analysisType is not technical, ai or both.
	ErrInvalidAnalysisType = errors.New("invalid analysis type")

	// ErrQuotaExceeded means the user has used every search for the current UTC day.
	ErrQuotaExceeded = errors.New("daily search quota exceeded")

	// ErrDataUnavailable means no symbol variant produced a non-empty series.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrNarrativeUnavailable is absorbed by the orchestrator and never
	// surfaced as a request failure.
	ErrNarrativeUnavailable = errors.New("AI analysis unavailable")

	// ErrPersistenceUnavailable means the key-value backend could not be reached.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrServiceUnavailable is surfaced when a request cannot be admitted
	// safely, e.g. the quota counter is unreachable.
	ErrServiceUnavailable = errors.New("service unavailable")
)
