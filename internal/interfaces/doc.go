// Package interfaces holds compile-time checks for the seams between
// packages.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - timer.Preferences: key/value storage for the timer blob (internal/timer/store.go)
//   - library.Loader: initial fill of the cached reading list (internal/library/list.go)
//
// ## Reconciliation Interfaces
//
//   - reconcile.Listener: per-entity and per-run callbacks (internal/reconcile/listener.go)
//   - reconcile.ProgressReporter: persisted run progress (internal/reconcile/reconciler.go)
//
// ## Background Work Interfaces
//
//   - tasks.BatchApplier: what a queued batch is applied with (internal/tasks/apply_sync_batch.go)
//   - scheduler.Dispatcher / http.BatchDispatcher: hand a batch to the queue or apply it inline
//   - scheduler.PayloadArchiver / tasks.Archive: the payload archive (internal/audit) and the inbox folders
//
// # Adding a New Listener
//
// Anything that must follow reconciliation (a cache, a notifier) implements
// reconcile.Listener, usually by embedding reconcile.NopListener, and is added
// to the reconcile.Listeners passed to NewReconciler in entrypoint.go:
//
//	type Notifier struct {
//	    reconcile.NopListener
//	}
//
//	func (n *Notifier) SyncFailed(message string, code int) { ... }
//
//	var _ reconcile.Listener = (*Notifier)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
