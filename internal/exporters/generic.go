package exporters

import "github.com/mrlokans/readlog/internal/entities"

type ReadingExporter interface {
	Export(books []entities.Book) (ExportResult, error)
}

type ExportResult struct {
	ReadingsProcessed int      `json:"readings_processed"`
	QuotesProcessed   int      `json:"quotes_processed"`
	ReadingsFailed    int      `json:"readings_failed"`
	Files             []string `json:"files,omitempty"`
}
