package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	NarrativeTimeout   = 30 * time.Second
	DatabaseTimeout    = 5 * time.Second
	DeliveryTimeout    = 30 * time.Second
	CycleTimeout       = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// MatchIDPageSize caps one match-id listing; the daily window never comes
	// close, the monthly window rarely does.
	MatchIDPageSize = 100

	JournalListLimit = 50
)
