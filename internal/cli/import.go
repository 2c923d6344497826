package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/database/books"
	syncrepo "github.com/mrlokans/readlog/internal/database/sync"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/reconcile"
)

// ImportCommand applies a sync payload file to the store in the foreground.
type ImportCommand struct {
	PayloadPath  string
	DatabasePath string
	Verbose      bool
	DryRun       bool

	out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.PayloadPath, "file", "", "Path to a JSON sync payload (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every applied entity")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Validate the payload without touching the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merge a sync payload into the database. Only the fields present in the\n")
		fmt.Fprintf(os.Stderr, "payload are changed; malformed entries are reported and skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file batch.json -dry-run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file batch.json -db ./readlog.db -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.PayloadPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	file, err := os.Open(cmd.PayloadPath)
	if err != nil {
		return fmt.Errorf("failed to open payload: %w", err)
	}
	defer file.Close()

	batch, err := reconcile.DecodeBatch(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Payload: %s\n", cmd.PayloadPath)
	fmt.Fprintf(cmd.out, "Found %d readings, %d sessions, %d quotes, %d deletions\n",
		len(batch.Books), len(batch.Sessions), len(batch.Quotes), len(batch.Deleted))

	if cmd.DryRun {
		invalid := cmd.validate(batch)
		fmt.Fprintf(cmd.out, "\nDry run complete: %d of %d entries would be skipped.\n", invalid, batch.Len())
		return nil
	}

	db, err := openStore(cmd.DatabasePath, "warn")
	if err != nil {
		return err
	}
	defer db.Close()

	var listener reconcile.Listener = reconcile.NopListener{}
	if cmd.Verbose {
		listener = &printListener{out: cmd.out}
	}
	reconciler := reconcile.NewReconciler(books.NewRepository(db.DB), listener)
	reconciler.SetProgressReporter(syncrepo.NewRepository(db.DB))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := reconciler.Apply(ctx, batch)
	if err != nil {
		return fmt.Errorf("import interrupted after %d of %d entries: %w", report.Processed, report.Total, err)
	}

	fmt.Fprintln(cmd.out, "\n=== Import Summary ===")
	fmt.Fprintf(cmd.out, "Run: %s\n", report.RunID)
	fmt.Fprintf(cmd.out, "Applied: %d/%d\n", report.Succeeded, report.Total)
	fmt.Fprintf(cmd.out, "Skipped: %d\n", report.Skipped)
	if len(report.Errors) > 0 {
		fmt.Fprintf(cmd.out, "\n%d problems:\n", len(report.Errors))
		for _, msg := range report.Errors {
			fmt.Fprintf(cmd.out, "  [ERROR] %s\n", msg)
		}
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d entries failed", report.Failed, report.Total)
	}
	return nil
}

// validate reports entries the store would reject without opening it.
func (cmd *ImportCommand) validate(batch *reconcile.Batch) int {
	invalid := 0
	check := func(kind string, i int, err error) {
		if err == nil {
			return
		}
		invalid++
		fmt.Fprintf(cmd.out, "  [SKIP] %s #%d: %v\n", kind, i+1, err)
	}
	for i, p := range batch.Books {
		check("reading", i, p.Validate())
	}
	for i, p := range batch.Sessions {
		check("session", i, p.Validate())
	}
	for i, p := range batch.Quotes {
		check("quote", i, p.Validate())
	}
	return invalid
}

// printListener echoes reconciliation callbacks for -verbose.
type printListener struct {
	reconcile.NopListener
	out io.Writer
}

func (l *printListener) EntitySaved(entity any, err error) {
	if err != nil {
		fmt.Fprintf(l.out, "  [ERROR] %v\n", err)
		return
	}
	switch e := entity.(type) {
	case *entities.Book:
		fmt.Fprintf(l.out, "  [OK] reading %d %q\n", e.ID, e.Title)
	case *entities.Session:
		fmt.Fprintf(l.out, "  [OK] session %d of reading %d\n", e.ID, e.BookID)
	case *entities.Quote:
		fmt.Fprintf(l.out, "  [OK] quote %d of reading %d\n", e.ID, e.BookID)
	}
}

func (l *printListener) EntityDeleted(id uint, err error) {
	if err != nil {
		fmt.Fprintf(l.out, "  [ERROR] delete reading %d: %v\n", id, err)
		return
	}
	fmt.Fprintf(l.out, "  [OK] deleted reading %d\n", id)
}
