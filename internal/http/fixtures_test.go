package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlog/internal/audit"
	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/database/settings"
	syncrepo "github.com/mrlokans/readlog/internal/database/sync"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/library"
	"github.com/mrlokans/readlog/internal/reconcile"
	"github.com/mrlokans/readlog/internal/timer"
)

type testApp struct {
	db       *database.Database
	books    *books.Repository
	settings *settings.Repository
	list     *library.List
	progress *syncrepo.Repository
	timer    *timer.Service
	auditDir string
	now      time.Time
	router   *gin.Engine
}

// newTestApp wires a router over a fresh store the same way serve does,
// without the task queue.
func newTestApp(t *testing.T, mutate ...func(*RouterConfig)) *testApp {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "readlog.db"), database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := &testApp{
		db:       db,
		books:    books.NewRepository(db.DB),
		settings: settings.NewRepository(db.DB),
		list:     library.NewList(),
		progress: syncrepo.NewRepository(db.DB),
		auditDir: filepath.Join(t.TempDir(), "audit"),
		now:      time.UnixMilli(1_700_000_000_000),
	}
	require.NoError(t, app.list.Load(app.books))

	reconciler := reconcile.NewReconciler(app.books, reconcile.Listeners{app.list})
	reconciler.SetProgressReporter(app.progress)

	app.timer = timer.NewService(db.DB)
	app.timer.SetClock(func() time.Time { return app.now })

	cfg := RouterConfig{
		Database:      db,
		Books:         app.books,
		Library:       app.list,
		Reconciler:    reconciler,
		Auditor:       audit.NewAuditor(app.auditDir),
		SyncProgress:  app.progress,
		Timer:         app.timer,
		InboxSettings: app.settings,
		Version:       "test",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	app.router = NewRouter(cfg)
	return app
}

func (a *testApp) seedBook(t *testing.T, title, author string) *entities.Book {
	t.Helper()
	book := entities.NewBook(title, author)
	require.NoError(t, a.books.CreateBook(book))
	a.list.Upsert(*book)
	return book
}

func (a *testApp) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
