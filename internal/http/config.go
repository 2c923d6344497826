package http

import (
	"github.com/mrlokans/readlog/internal/audit"
	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/database/settings"
	syncrepo "github.com/mrlokans/readlog/internal/database/sync"
	"github.com/mrlokans/readlog/internal/library"
	"github.com/mrlokans/readlog/internal/reconcile"
	"github.com/mrlokans/readlog/internal/tasks"
	"github.com/mrlokans/readlog/internal/timer"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database   *database.Database
	Books      *books.Repository
	Library    *library.List
	Reconciler *reconcile.Reconciler
	Auditor    *audit.Auditor

	// Sync progress tracking
	SyncProgress *syncrepo.Repository

	// Reading timer
	Timer *timer.Service

	// Dispatcher queues sync batches; when nil they are applied inline.
	Dispatcher BatchDispatcher

	// Task queue client (optional)
	TaskClient    *tasks.Client
	RetentionDays int // days to keep handled payload files

	// Inbox polling (optional)
	Inbox         InboxScheduler
	InboxSettings *settings.Repository

	// Application info
	Version string
}
