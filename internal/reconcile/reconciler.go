// Package reconcile absorbs partial updates from the remote feed into the
// store. Each entity is merged and persisted in its own transaction, so a
// failing entity never affects the others and a cancelled run leaves no
// half-written entity behind.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/entities"
)

// Codes passed to Listener.SyncFailed.
const (
	CodeMalformedBatch = 1
	CodeEntityFailures = 2
)

var errAlreadyDeleted = errors.New("reading already deleted")

// ProgressReporter persists the progress of a run.
type ProgressReporter interface {
	StartSync(runID string, totalItems int) error
	UpdateProgress(processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync() error
	FailSync(errorMsg string, code int) error
}

// Report summarises one applied batch. Skipped counts malformed entities and
// deletions of readings that no longer exist.
type Report struct {
	RunID     string   `json:"run_id"`
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Reconciler serializes all writes coming from the remote feed.
type Reconciler struct {
	mu       sync.Mutex
	repo     *books.Repository
	listener Listener
	progress ProgressReporter
}

// NewReconciler creates a reconciler. listener may be nil.
func NewReconciler(repo *books.Repository, listener Listener) *Reconciler {
	if listener == nil {
		listener = NopListener{}
	}
	return &Reconciler{repo: repo, listener: listener}
}

// SetProgressReporter makes every run persist its progress through p.
func (r *Reconciler) SetProgressReporter(p ProgressReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = p
}

// ApplyJSON decodes a batch from rd and applies it.
func (r *Reconciler) ApplyJSON(ctx context.Context, rd io.Reader) (*Report, error) {
	batch, err := DecodeBatch(rd)
	if err != nil {
		log.Printf("[SYNC] Rejecting batch: %v", err)
		r.listener.SyncFailed(err.Error(), CodeMalformedBatch)
		return nil, err
	}
	return r.Apply(ctx, batch)
}

// Apply merges every entity of batch into the store. Books go first, then
// sessions, quotes and remote deletions.
//
// Per-entity errors are counted in the report and delivered through
// EntitySaved or EntityDeleted. When ctx is cancelled Apply stops before the
// next entity, returns ctx.Err() and fires neither SyncDone nor SyncFailed.
func (r *Reconciler) Apply(ctx context.Context, batch *Batch) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := batch.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &Report{RunID: runID, Total: batch.Len()}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	log.Printf("[SYNC] Run %s started: %d books, %d sessions, %d quotes, %d deletions",
		runID, len(batch.Books), len(batch.Sessions), len(batch.Quotes), len(batch.Deleted))
	r.listener.SyncStarted()
	r.track(func(p ProgressReporter) error { return p.StartSync(runID, report.Total) })

	for _, p := range batch.Books {
		if err := r.step(ctx, report, "book", func() error {
			_, err := r.applyBook(ctx, p)
			return err
		}); err != nil {
			return report, err
		}
	}
	for _, p := range batch.Sessions {
		if err := r.step(ctx, report, "session", func() error {
			_, err := r.applySession(ctx, p)
			return err
		}); err != nil {
			return report, err
		}
	}
	for _, p := range batch.Quotes {
		if err := r.step(ctx, report, "quote", func() error {
			_, err := r.applyQuote(ctx, p)
			return err
		}); err != nil {
			return report, err
		}
	}
	for _, remoteID := range batch.Deleted {
		if err := r.step(ctx, report, "deletion", func() error {
			return r.deleteRemote(ctx, remoteID)
		}); err != nil {
			return report, err
		}
	}

	if report.Failed > 0 {
		msg := fmt.Sprintf("%d of %d updates failed", report.Failed, report.Total)
		log.Printf("[SYNC] Run %s failed: %s", runID, msg)
		r.listener.SyncFailed(msg, CodeEntityFailures)
		r.track(func(p ProgressReporter) error { return p.FailSync(msg, CodeEntityFailures) })
		return report, nil
	}

	log.Printf("[SYNC] Run %s done: %d succeeded, %d skipped", runID, report.Succeeded, report.Skipped)
	r.listener.SyncDone()
	r.track(func(p ProgressReporter) error { return p.CompleteSync() })
	return report, nil
}

func (r *Reconciler) step(ctx context.Context, report *Report, label string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		r.cancelled(report)
		return err
	}

	err := fn()
	if err != nil && ctx.Err() != nil {
		// The entity's transaction was rolled back by the cancellation.
		r.cancelled(report)
		return ctx.Err()
	}

	report.Processed++
	switch {
	case err == nil:
		report.Succeeded++
	case errors.Is(err, errAlreadyDeleted):
		report.Skipped++
	case errors.Is(err, ErrMalformedPayload):
		report.Skipped++
		report.Errors = append(report.Errors, err.Error())
		log.Printf("[SYNC] Skipping %s: %v", label, err)
	default:
		report.Failed++
		report.Errors = append(report.Errors, err.Error())
		log.Printf("[SYNC] Failed to apply %s: %v", label, err)
	}

	fraction := float64(report.Processed) / float64(report.Total)
	r.listener.SyncProgress(fmt.Sprintf("Applied %s %d/%d", label, report.Processed, report.Total), &fraction)
	r.track(func(p ProgressReporter) error {
		return p.UpdateProgress(report.Processed, report.Succeeded, report.Failed, report.Skipped, label)
	})
	return nil
}

func (r *Reconciler) cancelled(report *Report) {
	log.Printf("[SYNC] Run %s cancelled after %d/%d updates", report.RunID, report.Processed, report.Total)
	r.track(func(p ProgressReporter) error { return p.FailSync("sync was cancelled", 0) })
}

func (r *Reconciler) track(fn func(p ProgressReporter) error) {
	if r.progress == nil {
		return
	}
	if err := fn(r.progress); err != nil {
		log.Printf("[SYNC] Failed to record progress: %v", err)
	}
}

// ApplyBook merges a single book payload outside of a batch.
func (r *Reconciler) ApplyBook(ctx context.Context, p BookPayload) (*entities.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyBook(ctx, p)
}

// ApplySession merges a single session payload outside of a batch.
func (r *Reconciler) ApplySession(ctx context.Context, p SessionPayload) (*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applySession(ctx, p)
}

// ApplyQuote merges a single quote payload outside of a batch.
func (r *Reconciler) ApplyQuote(ctx context.Context, p QuotePayload) (*entities.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyQuote(ctx, p)
}

// DeleteBook deletes a reading with its sessions and quotes.
func (r *Reconciler) DeleteBook(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteBook(ctx, id)
}

func (r *Reconciler) applyBook(ctx context.Context, p BookPayload) (*entities.Book, error) {
	if err := p.Validate(); err != nil {
		r.listener.EntitySaved(nil, err)
		return nil, err
	}
	patch := p.normalized()

	var saved *entities.Book
	err := r.repo.WithContext(ctx).Transaction(func(tx *books.Repository) error {
		book, err := findBook(tx, p)
		if err != nil {
			return err
		}

		if book == nil {
			if patch.Title == nil || *patch.Title == "" {
				return malformed("new reading without title")
			}
			book = entities.NewBook("", "")
			entities.MergeBook(book, patch)
			if err := tx.CreateBook(book); err != nil {
				return err
			}
			saved = book
			return nil
		}

		previous := book.State
		entities.MergeBook(book, patch)
		if !previous.Advance(book.State) {
			log.Printf("[SYNC] Reading %d moved backwards from %s to %s", book.ID, previous, book.State)
		}
		if err := tx.UpdateBook(book); err != nil {
			return err
		}
		saved = book
		return nil
	})
	if err != nil {
		r.listener.EntitySaved(nil, err)
		return nil, err
	}

	r.listener.EntitySaved(saved, nil)
	r.listener.ReadingUpdated(saved)
	return saved, nil
}

// findBook returns nil without error when the payload names no existing
// reading by remote id.
func findBook(tx *books.Repository, p BookPayload) (*entities.Book, error) {
	if p.ID != nil {
		return tx.GetBook(*p.ID)
	}
	if !remoteIDSet(p.RemoteID) {
		return nil, nil
	}
	book, err := tx.FindBookByRemoteID(*p.RemoteID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return book, err
}

// resolveOwner maps the payload's book reference to a local reading. A
// reference to a reading that does not exist is bad data, not a store error.
func resolveOwner(tx *books.Repository, bookID *uint, bookRemoteID *int64) (uint, error) {
	if bookID != nil {
		book, err := tx.GetBook(*bookID)
		if errors.Is(err, database.ErrNotFound) {
			return 0, malformed("owning reading %d does not exist", *bookID)
		}
		if err != nil {
			return 0, err
		}
		return book.ID, nil
	}
	book, err := tx.FindBookByRemoteID(*bookRemoteID)
	if errors.Is(err, database.ErrNotFound) {
		return 0, malformed("owning reading with remote id %d does not exist", *bookRemoteID)
	}
	if err != nil {
		return 0, fmt.Errorf("owning reading with remote id %d: %w", *bookRemoteID, err)
	}
	return book.ID, nil
}

func (r *Reconciler) applySession(ctx context.Context, p SessionPayload) (*entities.Session, error) {
	if err := p.Validate(); err != nil {
		r.listener.EntitySaved(nil, err)
		return nil, err
	}

	var saved *entities.Session
	err := r.repo.WithContext(ctx).Transaction(func(tx *books.Repository) error {
		owner, err := resolveOwner(tx, p.BookID, p.BookRemoteID)
		if err != nil {
			return err
		}

		session, err := findSession(tx, p)
		if err != nil {
			return err
		}
		create := session == nil
		if create {
			if p.TimestampMs == nil {
				return malformed("new session without timestamp_ms")
			}
			session = &entities.Session{BookID: owner}
		} else if session.BookID != owner {
			return malformed("session %d belongs to reading %d, not %d", session.ID, session.BookID, owner)
		}

		entities.MergeSession(session, p.SessionPatch)
		if session.EndPosition < session.StartPosition {
			return malformed("session end_position %v before start_position %v", session.EndPosition, session.StartPosition)
		}

		if create {
			err = tx.CreateSession(session)
		} else {
			err = tx.UpdateSession(session)
		}
		if err != nil {
			return err
		}
		saved = session
		return nil
	})
	if err != nil {
		r.listener.EntitySaved(nil, err)
		return nil, err
	}

	r.listener.EntitySaved(saved, nil)
	return saved, nil
}

func findSession(tx *books.Repository, p SessionPayload) (*entities.Session, error) {
	if p.ID != nil {
		return tx.GetSessionByID(*p.ID)
	}
	if !remoteIDSet(p.RemoteID) {
		return nil, nil
	}
	session, err := tx.FindSessionByRemoteID(*p.RemoteID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return session, err
}

func (r *Reconciler) applyQuote(ctx context.Context, p QuotePayload) (*entities.Quote, error) {
	if err := p.Validate(); err != nil {
		r.listener.EntitySaved(nil, err)
		return nil, err
	}

	var saved *entities.Quote
	err := r.repo.WithContext(ctx).Transaction(func(tx *books.Repository) error {
		owner, err := resolveOwner(tx, p.BookID, p.BookRemoteID)
		if err != nil {
			return err
		}

		quote, err := findQuote(tx, p)
		if err != nil {
			return err
		}
		create := quote == nil
		if create {
			if p.Content == nil || *p.Content == "" {
				return malformed("new quote without content")
			}
			quote = &entities.Quote{BookID: owner}
		} else if quote.BookID != owner {
			return malformed("quote %d belongs to reading %d, not %d", quote.ID, quote.BookID, owner)
		}

		entities.MergeQuote(quote, p.QuotePatch)

		if create {
			err = tx.CreateQuote(quote)
		} else {
			err = tx.UpdateQuote(quote)
		}
		if err != nil {
			return err
		}
		saved = quote
		return nil
	})
	if err != nil {
		r.listener.EntitySaved(nil, err)
		return nil, err
	}

	r.listener.EntitySaved(saved, nil)
	return saved, nil
}

func findQuote(tx *books.Repository, p QuotePayload) (*entities.Quote, error) {
	if p.ID != nil {
		return tx.GetQuoteByID(*p.ID)
	}
	if !remoteIDSet(p.RemoteID) {
		return nil, nil
	}
	quote, err := tx.FindQuoteByRemoteID(*p.RemoteID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return quote, err
}

func (r *Reconciler) deleteRemote(ctx context.Context, remoteID int64) error {
	book, err := r.repo.WithContext(ctx).FindBookByRemoteID(remoteID)
	if errors.Is(err, database.ErrNotFound) {
		log.Printf("[SYNC] Reading with remote id %d already gone", remoteID)
		return errAlreadyDeleted
	}
	if err != nil {
		r.listener.EntityDeleted(0, err)
		return err
	}
	return r.deleteBook(ctx, book.ID)
}

func (r *Reconciler) deleteBook(ctx context.Context, id uint) error {
	if err := r.repo.WithContext(ctx).DeleteBook(id); err != nil {
		r.listener.EntityDeleted(id, err)
		return err
	}
	r.listener.EntityDeleted(id, nil)
	r.listener.ReadingDeleted(id)
	return nil
}
