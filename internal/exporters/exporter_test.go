package exporters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlog/internal/entities"
)

func sampleReading() entities.Book {
	return entities.Book{
		ID:                       1,
		Title:                    `Dune: "Book One"`,
		Author:                   "Frank Herbert",
		State:                    entities.BookStateReading,
		CurrentPosition:          0.426,
		FirstPositionTimestampMs: entities.Ptr(int64(1_600_000_000_000)),
		Sessions: []entities.Session{
			{StartPosition: 0, EndPosition: 0.2, DurationSeconds: 1800, TimestampMs: 1_600_000_000_000},
			{StartPosition: 0.2, EndPosition: 0.426, DurationSeconds: 2700, TimestampMs: 1_600_100_000_000},
		},
		Quotes: []entities.Quote{
			{Content: "I must not fear.\nFear is the mind-killer.", Position: 0.05, AddTimestampMs: entities.Ptr(int64(1_600_000_600_000))},
			{Content: "The spice must flow.", Position: 0.4},
		},
	}
}

func TestGenerateMarkdown(t *testing.T) {
	book := sampleReading()
	md := GenerateMarkdown(&book)

	assert.True(t, strings.HasPrefix(md, "---\ncontent_type: reading_quotes\n"))
	assert.Contains(t, md, "created_at: 2020-09-13\n")
	assert.Contains(t, md, `title: "Dune: \"Book One\""`)
	assert.Contains(t, md, "progress: 43%\n")
	assert.Contains(t, md, "### 5% (2020-09-13 12:36)\n\n> I must not fear.\n> Fear is the mind-killer.\n")
	assert.Contains(t, md, "### 40%\n\n> The spice must flow.\n")
	assert.Contains(t, md, "| 2020-09-13 12:26 | 0% | 20% | 30m0s |\n")
	assert.Contains(t, md, "Total reading time: 1h15m0s\n")
	assert.NotContains(t, md, "Closing remark")
}

func TestGenerateMarkdown_EmptyReading(t *testing.T) {
	book := entities.NewBook("Emma", "Jane Austen")
	book.ClosingRemark = entities.Ptr("Gave up.")
	md := GenerateMarkdown(book)

	assert.Contains(t, md, "## Closing remark\n\nGave up.\n")
	assert.NotContains(t, md, "## Quotes")
	assert.NotContains(t, md, "## Sessions")
	assert.NotContains(t, md, "created_at")
}

func TestMarkdownExporter_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")
	readings := []entities.Book{sampleReading(), *entities.NewBook("Emma", "Jane Austen")}

	result, err := NewMarkdownExporter(dir).Export(readings)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ReadingsProcessed)
	assert.Equal(t, 2, result.QuotesProcessed)
	assert.Equal(t, 0, result.ReadingsFailed)

	content, err := os.ReadFile(filepath.Join(dir, "Dune Book One.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "The spice must flow.")
	assert.FileExists(t, filepath.Join(dir, "Emma.md"))
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Emma", "Emma"},
		{"reserved characters", `Who/What: "Why"?`, "WhoWhat Why"},
		{"brackets and tags", "Dune [Book 1] #scifi", "Dune (Book 1) scifi"},
		{"whitespace runs", "  War\tand\n\nPeace  ", "War and Peace"},
		{"unicode", "Pamiętnik znaleziony w wannie", "Pamiętnik znaleziony w wannie"},
		{"nothing left", "<>?*", "Untitled"},
		{"long", strings.Repeat("a", 250), strings.Repeat("a", 200)},
		{"long multibyte stays valid", strings.Repeat("ę", 150), strings.Repeat("ę", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.input))
		})
	}
}
