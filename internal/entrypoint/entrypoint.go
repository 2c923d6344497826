package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlog/internal/audit"
	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/database/settings"
	syncrepo "github.com/mrlokans/readlog/internal/database/sync"
	http_controllers "github.com/mrlokans/readlog/internal/http"
	"github.com/mrlokans/readlog/internal/library"
	"github.com/mrlokans/readlog/internal/reconcile"
	"github.com/mrlokans/readlog/internal/scheduler"
	"github.com/mrlokans/readlog/internal/tasks"
	"github.com/mrlokans/readlog/internal/timer"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so no batch is cut off by a closed store.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting readlog v%s", version)

	// A store that cannot be migrated is fatal: serving it would mean
	// reading rows in a layout this build does not understand.
	db, err := database.Open(cfg.Database.Path, database.Options{
		LogLevel: database.ParseLogLevel(cfg.Database.LogLevel),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	syncProgress := syncrepo.NewRepository(db.DB)

	// Cached reading list, kept current by reconciliation callbacks
	readings := library.NewList()
	if err := readings.Load(bookRepo); err != nil {
		log.Fatalf("Failed to load readings: %v", err)
	}
	log.Printf("Loaded %d readings", readings.Len())

	reconciler := reconcile.NewReconciler(bookRepo, reconcile.Listeners{readings})
	reconciler.SetProgressReporter(syncProgress)

	timerService := timer.NewService(db.DB)
	if status, err := timerService.Status(); err != nil {
		log.Printf("WARNING: Failed to restore reading timer: %v", err)
	} else if status.ReadingID != timer.NoReading {
		log.Printf("Restored reading timer for reading %d (%dms elapsed, running=%v)", status.ReadingID, status.ElapsedMs, status.Running)
	}

	auditor := audit.NewAuditor(cfg.Audit.Dir)

	// Without a task queue, batches are applied on the caller's goroutine.
	var dispatcher scheduler.Dispatcher = scheduler.DispatchFunc(func(ctx context.Context, source string, batch *reconcile.Batch) error {
		report, err := reconciler.Apply(ctx, batch)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("batch from %s: %d of %d updates failed", source, report.Failed, report.Total)
		}
		return nil
	})
	var httpDispatcher http_controllers.BatchDispatcher

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			BatchTimeout:    cfg.Tasks.BatchTimeout,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewApplySyncBatchQueue(reconciler, taskCfg.BatchTimeout),
			tasks.NewPruneArchivesQueue(map[string]tasks.Archive{
				"payload archive": auditor,
				"inbox":           scheduler.NewInboxArchive(cfg.Inbox.Dir),
			}),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		enqueuer := tasks.NewEnqueuer(taskClient)
		dispatcher = enqueuer
		httpDispatcher = enqueuer

		if _, err := taskClient.Add(tasks.PruneArchivesTask{RetentionDays: cfg.Audit.RetentionDays}).Save(); err != nil {
			log.Printf("WARNING: Failed to schedule archive pruning: %v", err)
		}
	}

	inboxScheduler := scheduler.NewInboxSyncScheduler(cfg.Inbox, dispatcher, settingsRepo, auditor)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	if err := inboxScheduler.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start inbox scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		Books:         bookRepo,
		Library:       readings,
		Reconciler:    reconciler,
		Auditor:       auditor,
		SyncProgress:  syncProgress,
		Timer:         timerService,
		Dispatcher:    httpDispatcher,
		TaskClient:    taskClient,
		RetentionDays: cfg.Audit.RetentionDays,
		Inbox:         inboxScheduler,
		InboxSettings: settingsRepo,
		Version:       version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		inboxScheduler.Stop()
		schedulerCancel()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
