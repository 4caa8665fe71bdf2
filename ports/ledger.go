package ports

import (
	"context"

	"goprove/domain/core"
	"goprove/domain/governance"
)

// LedgerWriter provides append-only write access to governance events.
// Append is the entire mutating surface: no update or delete exists.
type LedgerWriter interface {
	Append(ctx context.Context, event governance.Event) (core.EventID, error)
}

// LedgerReader provides read-only access for queries and audit replay.
type LedgerReader interface {
	// ListEvents returns all events for a candidate ordered by event_id.
	ListEvents(ctx context.Context, candidateID core.CandidateID) ([]governance.Event, error)
}

// LedgerPort combines append and read access.
type LedgerPort interface {
	LedgerWriter
	LedgerReader
}
