package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/exporters"
)

// ExportCommand writes every reading as a Markdown note.
type ExportCommand struct {
	OutputDir    string
	DatabasePath string
	State        string

	out io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{out: os.Stdout}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.OutputDir, "output", "", "Directory for the Markdown notes (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.State, "state", "", "Only export readings in this state (unknown, reading, finished)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -output <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export readings with their quotes and sessions as Obsidian-compatible notes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.OutputDir == "" {
		return fmt.Errorf("required flag -output not provided")
	}
	if cmd.State != "" && !entities.BookState(cmd.State).Valid() {
		return fmt.Errorf("unknown state: %s", cmd.State)
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	db, err := openStore(cmd.DatabasePath, "silent")
	if err != nil {
		return err
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	var list []entities.Book
	if cmd.State != "" {
		list, err = repo.ListBooksByState(entities.BookState(cmd.State))
	} else {
		list, err = repo.ListBooks()
	}
	if err != nil {
		return fmt.Errorf("failed to list readings: %w", err)
	}

	full := make([]entities.Book, 0, len(list))
	for _, b := range list {
		book, err := repo.GetBookByID(b.ID)
		if err != nil {
			return fmt.Errorf("reading %d: %w", b.ID, err)
		}
		full = append(full, *book)
	}

	absOutputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}

	result, err := exporters.NewMarkdownExporter(absOutputDir).Export(full)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Exported %d readings with %d quotes to %s\n", result.ReadingsProcessed, result.QuotesProcessed, absOutputDir)
	if result.ReadingsFailed > 0 {
		return fmt.Errorf("%d readings failed to export", result.ReadingsFailed)
	}
	return nil
}
