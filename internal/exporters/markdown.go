package exporters

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/readlog/internal/entities"
)

// MarkdownExporter writes one Obsidian-compatible note per reading into Dir.
// Readings must be loaded with their sessions and quotes.
type MarkdownExporter struct {
	Dir    string
	Result ExportResult
}

func NewMarkdownExporter(dir string) *MarkdownExporter {
	return &MarkdownExporter{Dir: dir}
}

// FileName returns the note name used for book.
func FileName(book *entities.Book) string {
	return SanitizeTitle(book.Title) + ".md"
}

func GenerateMarkdown(book *entities.Book) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: reading_quotes\n")
	if ts := book.FirstPositionTimestampMs; ts != nil {
		fmt.Fprintf(&builder, "created_at: %s\n", time.UnixMilli(*ts).UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(&builder, "title: \"%s\"\n", strings.ReplaceAll(book.Title, "\"", "\\\""))
	fmt.Fprintf(&builder, "author: \"%s\"\n", strings.ReplaceAll(book.Author, "\"", "\\\""))
	fmt.Fprintf(&builder, "state: %s\n", book.State)
	fmt.Fprintf(&builder, "progress: %d%%\n", percent(book.CurrentPosition))
	fmt.Fprintf(&builder, "tags: quotes, books\n")
	fmt.Fprintf(&builder, "---\n\n")

	if book.ClosingRemark != nil {
		fmt.Fprintf(&builder, "## Closing remark\n\n%s\n\n", *book.ClosingRemark)
	}

	if len(book.Quotes) > 0 {
		fmt.Fprintf(&builder, "## Quotes\n\n")
		for _, q := range book.Quotes {
			if q.AddTimestampMs != nil {
				fmt.Fprintf(&builder, "### %d%% (%s)\n\n", percent(q.Position), time.UnixMilli(*q.AddTimestampMs).UTC().Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintf(&builder, "### %d%%\n\n", percent(q.Position))
			}
			fmt.Fprintf(&builder, "> %s\n\n", strings.ReplaceAll(q.Content, "\n", "\n> "))
		}
	}

	if len(book.Sessions) > 0 {
		var total time.Duration
		fmt.Fprintf(&builder, "## Sessions\n\n")
		fmt.Fprintf(&builder, "| Date | From | To | Duration |\n")
		fmt.Fprintf(&builder, "|---|---|---|---|\n")
		for _, s := range book.Sessions {
			total += s.Duration()
			fmt.Fprintf(&builder, "| %s | %d%% | %d%% | %s |\n",
				s.Time().Format("2006-01-02 15:04"), percent(s.StartPosition), percent(s.EndPosition), s.Duration())
		}
		fmt.Fprintf(&builder, "\nTotal reading time: %s\n", total)
	}

	return builder.String()
}

// Export writes every reading and keeps going past individual failures.
func (exporter *MarkdownExporter) Export(books []entities.Book) (ExportResult, error) {
	exporter.Result = ExportResult{}

	if err := os.MkdirAll(exporter.Dir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	for i := range books {
		book := &books[i]
		path := filepath.Join(exporter.Dir, FileName(book))
		if err := os.WriteFile(path, []byte(GenerateMarkdown(book)), 0644); err != nil {
			log.Printf("Failed to export reading %d: %v", book.ID, err)
			exporter.Result.ReadingsFailed++
			continue
		}
		exporter.Result.ReadingsProcessed++
		exporter.Result.QuotesProcessed += len(book.Quotes)
		exporter.Result.Files = append(exporter.Result.Files, path)
	}

	return exporter.Result, nil
}

func percent(position float64) int {
	return int(position*100 + 0.5)
}
