package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/exporters"
)

// ShowCommand prints one reading with its sessions and quotes as YAML.
type ShowCommand struct {
	ID           uint
	RemoteID     int64
	Format       string
	DatabasePath string

	out io.Writer
}

func NewShowCommand() *ShowCommand {
	return &ShowCommand{out: os.Stdout}
}

func (cmd *ShowCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)

	fs.UintVar(&cmd.ID, "id", 0, "Local reading id")
	fs.Int64Var(&cmd.RemoteID, "remote-id", 0, "Remote reading id (used when -id is not given)")
	fs.StringVar(&cmd.Format, "format", "yaml", "Output format: yaml or markdown")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s show -id <id> | -remote-id <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print a reading with its sessions and quotes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ID == 0 && cmd.RemoteID == 0 {
		return fmt.Errorf("one of -id or -remote-id is required")
	}
	if cmd.Format != "yaml" && cmd.Format != "markdown" {
		return fmt.Errorf("unknown format: %s", cmd.Format)
	}
	return nil
}

func (cmd *ShowCommand) Run() error {
	db, err := openStore(cmd.DatabasePath, "silent")
	if err != nil {
		return err
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	id := cmd.ID
	if id == 0 {
		book, err := repo.FindBookByRemoteID(cmd.RemoteID)
		if err != nil {
			return fmt.Errorf("reading with remote id %d: %w", cmd.RemoteID, err)
		}
		id = book.ID
	}

	book, err := repo.GetBookByID(id)
	if err != nil {
		return fmt.Errorf("reading %d: %w", id, err)
	}

	if cmd.Format == "markdown" {
		_, err := io.WriteString(cmd.out, exporters.GenerateMarkdown(book))
		return err
	}

	enc := yaml.NewEncoder(cmd.out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(newReadingView(book))
}

type readingView struct {
	ID            uint          `yaml:"id"`
	RemoteID      *int64        `yaml:"remote_id,omitempty"`
	Title         string        `yaml:"title"`
	Author        string        `yaml:"author,omitempty"`
	State         string        `yaml:"state"`
	Position      float64       `yaml:"position"`
	PageCount     *float64      `yaml:"page_count,omitempty"`
	FirstRead     string        `yaml:"first_read,omitempty"`
	LastRead      string        `yaml:"last_read,omitempty"`
	ClosingRemark *string       `yaml:"closing_remark,omitempty"`
	TimeRead      string        `yaml:"time_read"`
	Sessions      []sessionView `yaml:"sessions,omitempty"`
	Quotes        []quoteView   `yaml:"quotes,omitempty"`
}

type sessionView struct {
	At       string  `yaml:"at"`
	From     float64 `yaml:"from"`
	To       float64 `yaml:"to"`
	Duration string  `yaml:"duration"`
}

type quoteView struct {
	Position float64 `yaml:"position"`
	Added    string  `yaml:"added,omitempty"`
	Content  string  `yaml:"content"`
}

func newReadingView(b *entities.Book) readingView {
	view := readingView{
		ID:            b.ID,
		RemoteID:      b.RemoteID,
		Title:         b.Title,
		Author:        b.Author,
		State:         string(b.State),
		Position:      b.CurrentPosition,
		PageCount:     b.PageCount,
		FirstRead:     formatMs(b.FirstPositionTimestampMs),
		LastRead:      formatMs(b.CurrentPositionTimestampMs),
		ClosingRemark: b.ClosingRemark,
	}

	var total time.Duration
	for _, s := range b.Sessions {
		total += s.Duration()
		view.Sessions = append(view.Sessions, sessionView{
			At:       s.Time().Format(time.RFC3339),
			From:     s.StartPosition,
			To:       s.EndPosition,
			Duration: s.Duration().String(),
		})
	}
	view.TimeRead = total.String()

	for _, q := range b.Quotes {
		view.Quotes = append(view.Quotes, quoteView{
			Position: q.Position,
			Added:    formatMs(q.AddTimestampMs),
			Content:  q.Content,
		})
	}
	return view
}

func formatMs(ms *int64) string {
	if ms == nil {
		return ""
	}
	return time.UnixMilli(*ms).UTC().Format(time.RFC3339)
}
