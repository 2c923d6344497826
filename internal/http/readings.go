package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/exporters"
	"github.com/mrlokans/readlog/internal/library"
	"github.com/mrlokans/readlog/internal/reconcile"
)

// ReadingsController serves the reading list and single readings. Lists come
// from the cached library; a single reading is loaded from the store together
// with its sessions and quotes.
type ReadingsController struct {
	list       *library.List
	books      *books.Repository
	reconciler *reconcile.Reconciler
}

func NewReadingsController(list *library.List, repo *books.Repository, reconciler *reconcile.Reconciler) *ReadingsController {
	return &ReadingsController{list: list, books: repo, reconciler: reconciler}
}

// ListReadings handles GET /api/readings?q=&state=
func (rc *ReadingsController) ListReadings(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	state := entities.BookState(c.Query("state"))

	if state != "" && !state.Valid() {
		respondBadRequest(c, "unknown state: "+string(state))
		return
	}

	var readings []entities.Book
	switch {
	case query != "" && state != "":
		readings = rc.list.Filter(func(b entities.Book) bool {
			return b.State == state && library.Matches(b, query)
		})
	case query != "":
		readings = rc.list.Search(query)
	case state != "":
		readings = rc.list.ByState(state)
	default:
		readings = rc.list.All()
	}
	if readings == nil {
		readings = []entities.Book{}
	}

	c.JSON(http.StatusOK, gin.H{
		"readings": readings,
		"total":    len(readings),
	})
}

// GetReading handles GET /api/readings/:id
func (rc *ReadingsController) GetReading(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := rc.books.GetBookByID(id)
	if err != nil {
		respondStoreError(c, err, "reading", "get reading")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DownloadMarkdown handles GET /api/readings/:id/markdown
func (rc *ReadingsController) DownloadMarkdown(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := rc.books.GetBookByID(id)
	if err != nil {
		respondStoreError(c, err, "reading", "export reading")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporters.FileName(book)))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(exporters.GenerateMarkdown(book)))
}

// GetStats handles GET /api/readings/stats
func (rc *ReadingsController) GetStats(c *gin.Context) {
	totalBooks, totalSessions, totalQuotes, err := rc.books.GetStats()
	if err != nil {
		respondInternalError(c, err, "reading stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_readings": totalBooks,
		"total_sessions": totalSessions,
		"total_quotes":   totalQuotes,
	})
}

// UpdateReading handles PATCH /api/readings/:id. Only the fields present in
// the body are changed.
func (rc *ReadingsController) UpdateReading(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch entities.BookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, err := rc.reconciler.ApplyBook(c.Request.Context(), reconcile.BookPayload{ID: &id, BookPatch: patch})
	if err != nil {
		respondStoreError(c, err, "reading", "update reading")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteReading handles DELETE /api/readings/:id. Sessions and quotes of the
// reading are deleted with it.
func (rc *ReadingsController) DeleteReading(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.reconciler.DeleteBook(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "reading", "delete reading")
		return
	}
	respondSuccess(c, "reading deleted")
}
