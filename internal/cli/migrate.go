package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/database/migrations"
)

// MigrateCommand opens a store, bringing its schema up to date, and reports
// what was done.
type MigrateCommand struct {
	DatabasePath string
	LogLevel     string
	ListSteps    bool

	out io.Writer
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{out: os.Stdout}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.LogLevel, "log-level", "warn", "SQL log level: silent, error, warn, info")
	fs.BoolVar(&cmd.ListSteps, "list", false, "List known schema versions without opening a database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Upgrade a database to schema version %d.\n\n", migrations.CurrentVersion)
		fmt.Fprintf(os.Stderr, "All pending steps run in one transaction; a failing step leaves the\n")
		fmt.Fprintf(os.Stderr, "database untouched. Databases written by a newer release are refused.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *MigrateCommand) Run() error {
	if cmd.ListSteps {
		fmt.Fprintf(cmd.out, "v%d  base schema\n", migrations.BaseVersion)
		for _, step := range migrations.Default().Steps() {
			fmt.Fprintf(cmd.out, "v%d  %s\n", step.To, step.Name)
		}
		return nil
	}

	db, err := openStore(cmd.DatabasePath, cmd.LogLevel)
	if err != nil {
		return err
	}
	defer db.Close()

	result := db.Migration()
	fmt.Fprintf(cmd.out, "Database: %s\n", db.Path())
	switch {
	case result.Fresh:
		fmt.Fprintf(cmd.out, "Created new database at schema version %d\n", result.To)
	case len(result.Applied) == 0:
		fmt.Fprintf(cmd.out, "Schema is up to date (version %d)\n", result.To)
	default:
		fmt.Fprintf(cmd.out, "Upgraded schema from version %d to %d\n", result.From, result.To)
		for _, name := range result.Applied {
			fmt.Fprintf(cmd.out, "  [OK] %s\n", name)
		}
	}
	return nil
}
