package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/reconcile"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Dispatcher hands a decoded batch to whatever applies it: the task queue or
// the reconciler directly.
type Dispatcher interface {
	Dispatch(ctx context.Context, source string, batch *reconcile.Batch) error
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, source string, batch *reconcile.Batch) error

func (f DispatchFunc) Dispatch(ctx context.Context, source string, batch *reconcile.Batch) error {
	return f(ctx, source, batch)
}

// StatusStore records the outcome of the last inbox run.
type StatusStore interface {
	SetValues(values map[string]string) error
}

// PayloadArchiver keeps a copy of every payload file read from the inbox.
type PayloadArchiver interface {
	SavePayload(payload []byte) (string, error)
}

// RunResult summarises one pass over the inbox.
type RunResult struct {
	Dispatched []string
	Failed     []string
}

// InboxSyncScheduler periodically picks up payload files dropped into the
// inbox directory by the remote feed. Each *.json file is decoded and
// dispatched, then moved to processed/ or failed/.
type InboxSyncScheduler struct {
	cfg        config.Inbox
	dispatcher Dispatcher
	status     StatusStore
	archiver   PayloadArchiver

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewInboxSyncScheduler creates a new scheduler instance. status and archiver
// may be nil.
func NewInboxSyncScheduler(cfg config.Inbox, dispatcher Dispatcher, status StatusStore, archiver PayloadArchiver) *InboxSyncScheduler {
	return &InboxSyncScheduler{
		cfg:        cfg,
		dispatcher: dispatcher,
		status:     status,
		archiver:   archiver,
		cron:       cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if the inbox is enabled.
func (s *InboxSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Inbox sync scheduler: disabled")
		return nil
	}

	if err := ValidateSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(cancelCtx); err != nil {
			log.Printf("Inbox sync: %v", err)
		}
	})
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule inbox job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.Printf("Inbox sync scheduler: watching %s with schedule '%s'", s.cfg.Dir, s.cfg.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop cancels a running pass between files, waits for it and stops the
// scheduler.
func (s *InboxSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()

	log.Printf("Inbox sync scheduler: stopped")
}

// RunNow triggers an immediate pass in the background.
func (s *InboxSyncScheduler) RunNow() {
	go func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			log.Printf("Inbox sync: %v", err)
		}
	}()
}

// IsRunning returns whether the scheduler is active
func (s *InboxSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a pass is currently in progress
func (s *InboxSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next pass will occur
func (s *InboxSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunOnce processes every payload file currently in the inbox. A pass that
// overlaps a running one is skipped.
func (s *InboxSyncScheduler) RunOnce(ctx context.Context) (RunResult, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Inbox sync: skipped (already syncing)")
		return RunResult{}, nil
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	files, err := s.pending()
	if err != nil {
		s.recordStatus("failed", err.Error())
		return RunResult{}, err
	}

	var result RunResult
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			s.recordStatus("failed", "cancelled")
			return result, err
		}

		if err := s.processFile(ctx, name); err != nil {
			log.Printf("Inbox sync: %s failed: %v", name, err)
			result.Failed = append(result.Failed, name)
			s.move(name, failedDir)
			continue
		}
		result.Dispatched = append(result.Dispatched, name)
		s.move(name, processedDir)
	}

	msg := fmt.Sprintf("Dispatched %d payloads, %d failed", len(result.Dispatched), len(result.Failed))
	status := "success"
	if len(result.Failed) > 0 {
		status = "failed"
	}
	if len(files) > 0 {
		log.Printf("Inbox sync: %s", msg)
	}
	s.recordStatus(status, msg)
	return result, nil
}

func (s *InboxSyncScheduler) pending() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", s.cfg.Dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func (s *InboxSyncScheduler) processFile(ctx context.Context, name string) error {
	payload, err := os.ReadFile(filepath.Join(s.cfg.Dir, name))
	if err != nil {
		return err
	}

	if s.archiver != nil {
		if _, err := s.archiver.SavePayload(payload); err != nil {
			log.Printf("Inbox sync: warning - failed to archive %s: %v", name, err)
		}
	}

	batch, err := reconcile.DecodeBatch(bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return s.dispatcher.Dispatch(ctx, name, batch)
}

func (s *InboxSyncScheduler) move(name, subdir string) {
	dst := filepath.Join(s.cfg.Dir, subdir)
	if err := os.MkdirAll(dst, 0755); err != nil {
		log.Printf("Inbox sync: warning - failed to create %s: %v", dst, err)
		return
	}
	target := filepath.Join(dst, name)
	if err := os.Rename(filepath.Join(s.cfg.Dir, name), target); err != nil {
		log.Printf("Inbox sync: warning - failed to move %s: %v", name, err)
		return
	}
	// Archive retention counts from when the file was handled.
	now := time.Now()
	if err := os.Chtimes(target, now, now); err != nil {
		log.Printf("Inbox sync: warning - failed to touch %s: %v", target, err)
	}
}

func (s *InboxSyncScheduler) recordStatus(status, message string) {
	if s.status == nil {
		return
	}
	err := s.status.SetValues(map[string]string{
		entities.SettingKeyInboxSyncLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyInboxSyncLastStatus:  status,
		entities.SettingKeyInboxSyncLastMessage: message,
	})
	if err != nil {
		log.Printf("Inbox sync: warning - failed to record status: %v", err)
	}
}
