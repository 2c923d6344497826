package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/readlog/internal/audit"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/database/settings"
	"github.com/mrlokans/readlog/internal/database/sync"
	"github.com/mrlokans/readlog/internal/exporters"
	"github.com/mrlokans/readlog/internal/http"
	"github.com/mrlokans/readlog/internal/library"
	"github.com/mrlokans/readlog/internal/reconcile"
	"github.com/mrlokans/readlog/internal/scheduler"
	"github.com/mrlokans/readlog/internal/tasks"
	"github.com/mrlokans/readlog/internal/timer"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Timer persistence
var _ timer.Preferences = (*settings.Repository)(nil)

// Cached reading list source
var _ library.Loader = (*books.Repository)(nil)

// Inbox bookkeeping
var _ scheduler.StatusStore = (*settings.Repository)(nil)

// =============================================================================
// Reconciliation
// =============================================================================

// Listener implementations
var _ reconcile.Listener = (*library.List)(nil)
var _ reconcile.Listener = reconcile.NopListener{}
var _ reconcile.Listener = reconcile.Listeners{}

// ProgressReporter implementations
var _ reconcile.ProgressReporter = (*sync.Repository)(nil)

// =============================================================================
// Background Work
// =============================================================================

// Batch application
var _ tasks.BatchApplier = (*reconcile.Reconciler)(nil)
var _ scheduler.Dispatcher = (*tasks.Enqueuer)(nil)
var _ scheduler.Dispatcher = scheduler.DispatchFunc(nil)
var _ http.BatchDispatcher = (*tasks.Enqueuer)(nil)
var _ http.InboxScheduler = (*scheduler.InboxSyncScheduler)(nil)

// Payload archive
var _ scheduler.PayloadArchiver = (*audit.Auditor)(nil)
var _ tasks.Archive = (*audit.Auditor)(nil)
var _ tasks.Archive = (*scheduler.InboxArchive)(nil)

// Export
var _ exporters.ReadingExporter = (*exporters.MarkdownExporter)(nil)
