package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mrlokans/readlog/internal/entities"
)

// ErrMalformedPayload marks a data-quality problem in an incoming update. The
// affected entity is logged and skipped; nothing is written for it.
var ErrMalformedPayload = errors.New("malformed payload")

// BookPayload is a partial update for a reading. ID addresses a local row;
// otherwise RemoteID is used to find it, and a payload matching nothing
// creates a new reading.
type BookPayload struct {
	ID *uint `json:"id,omitempty"`
	entities.BookPatch
}

// SessionPayload is a partial update for a session. BookID or BookRemoteID
// names the owning reading.
type SessionPayload struct {
	ID           *uint  `json:"id,omitempty"`
	BookID       *uint  `json:"book_id,omitempty"`
	BookRemoteID *int64 `json:"book_remote_id,omitempty"`
	entities.SessionPatch
}

// QuotePayload is a partial update for a quote. BookID or BookRemoteID names
// the owning reading.
type QuotePayload struct {
	ID           *uint  `json:"id,omitempty"`
	BookID       *uint  `json:"book_id,omitempty"`
	BookRemoteID *int64 `json:"book_remote_id,omitempty"`
	entities.QuotePatch
}

// Batch is one delivery from the remote feed. Books are applied first so that
// sessions and quotes in the same batch can reference them by remote id.
type Batch struct {
	RunID    string           `json:"run_id,omitempty"`
	Books    []BookPayload    `json:"books,omitempty"`
	Sessions []SessionPayload `json:"sessions,omitempty"`
	Quotes   []QuotePayload   `json:"quotes,omitempty"`
	// Deleted lists remote ids of readings removed remotely.
	Deleted []int64 `json:"deleted,omitempty"`
}

// Len returns the number of entity operations in the batch.
func (b *Batch) Len() int {
	return len(b.Books) + len(b.Sessions) + len(b.Quotes) + len(b.Deleted)
}

// DecodeBatch reads a JSON batch. Unknown fields are rejected so that a
// payload for a different schema fails loudly.
func DecodeBatch(r io.Reader) (*Batch, error) {
	var batch Batch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &batch, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

func validFraction(v *float64) bool {
	return v == nil || (!math.IsNaN(*v) && *v >= 0 && *v <= 1)
}

func remoteIDSet(id *int64) bool {
	return id != nil && *id != entities.UnsetRemoteID
}

// Validate checks a book payload before it is merged.
func (p BookPayload) Validate() error {
	if !validFraction(p.CurrentPosition) {
		return malformed("current_position %v outside [0,1]", *p.CurrentPosition)
	}
	if p.State != nil && *p.State != "" && !p.State.Valid() {
		return malformed("unknown state %q", *p.State)
	}
	if p.CurrentPositionTimestampMs != nil && *p.CurrentPositionTimestampMs < 0 {
		return malformed("negative current_position_timestamp_ms")
	}
	if p.FirstPositionTimestampMs != nil && *p.FirstPositionTimestampMs < 0 {
		return malformed("negative first_position_timestamp_ms")
	}
	return nil
}

// normalized drops values the remote feed uses to mean "unknown".
func (p BookPayload) normalized() entities.BookPatch {
	patch := p.BookPatch
	if patch.PageCount != nil && (math.IsNaN(*patch.PageCount) || *patch.PageCount <= 0) {
		patch.PageCount = nil
	}
	return patch
}

func (p SessionPayload) Validate() error {
	if p.BookID == nil && !remoteIDSet(p.BookRemoteID) {
		return malformed("session without owning reading")
	}
	if !validFraction(p.StartPosition) {
		return malformed("start_position %v outside [0,1]", *p.StartPosition)
	}
	if !validFraction(p.EndPosition) {
		return malformed("end_position %v outside [0,1]", *p.EndPosition)
	}
	if p.StartPosition != nil && p.EndPosition != nil && *p.EndPosition < *p.StartPosition {
		return malformed("end_position %v before start_position %v", *p.EndPosition, *p.StartPosition)
	}
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return malformed("negative duration_seconds")
	}
	if p.TimestampMs != nil && *p.TimestampMs < entities.MinSessionTimestampMs {
		return malformed("timestamp_ms %d predates 1971", *p.TimestampMs)
	}
	return nil
}

func (p QuotePayload) Validate() error {
	if p.BookID == nil && !remoteIDSet(p.BookRemoteID) {
		return malformed("quote without owning reading")
	}
	if !validFraction(p.Position) {
		return malformed("position %v outside [0,1]", *p.Position)
	}
	if p.AddTimestampMs != nil && *p.AddTimestampMs < 0 {
		return malformed("negative add_timestamp_ms")
	}
	return nil
}
