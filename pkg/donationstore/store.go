package donationstore

import (
	"context"
	"errors"
	"time"

	"github.com/brightfund/donation-gateway/pkg/donation"
)

// ErrNotFound is returned when a donation lookup finds no matching record.
var ErrNotFound = errors.New("donation not found")

// Store defines the narrow persistence interface the orchestrator consumes.
// The store exclusively owns persisted donation state; the orchestrator is
// stateless between requests.
type Store interface {
	// Create persists a new intent and returns nothing beyond the error;
	// the caller already assigned the id.
	Create(ctx context.Context, intent *donation.Intent) error

	// GetByID returns ErrNotFound when the id does not exist.
	GetByID(ctx context.Context, id string) (*donation.Intent, error)

	// UpdateStatus sets status (and the hash, when non-empty) and returns
	// the status the row held before the write. Concurrent submissions of
	// the same hash are last-write-wins.
	UpdateStatus(ctx context.Context, id string, status donation.Status, txHash string) (donation.Status, error)

	// UpdateNotes applies the given verification fields. Nil fields are
	// left untouched.
	UpdateNotes(ctx context.Context, id string, fields NotesUpdate) error
}

// NotesUpdate is a partial update of verification metadata.
type NotesUpdate struct {
	Confirmations  *int
	ConfirmedAt    *time.Time
	VerifiedAmount *string
	FromAddress    *string
	BlockHeight    *int64
	FailureReason  *string
}
