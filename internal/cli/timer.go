package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/database/books"
	"github.com/mrlokans/readlog/internal/timer"
)

// TimerCommand controls the persisted reading timer from the shell. The
// timer survives between invocations because its state lives in the store.
type TimerCommand struct {
	Action        string
	ReadingID     int64
	StartPosition float64
	EndPosition   float64
	DatabasePath  string

	out io.Writer
	now func() time.Time
}

func NewTimerCommand() *TimerCommand {
	return &TimerCommand{out: os.Stdout, now: time.Now}
}

func (cmd *TimerCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("timer", flag.ExitOnError)

	fs.Int64Var(&cmd.ReadingID, "id", 0, "Reading id to time (start)")
	fs.Float64Var(&cmd.StartPosition, "from", 0, "Position where the session started, 0..1 (stop)")
	fs.Float64Var(&cmd.EndPosition, "to", 0, "Position where the session ended, 0..1 (stop)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s timer <start|pause|status|stop|reset> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  start -id N           start or resume timing reading N\n")
		fmt.Fprintf(os.Stderr, "  pause                 pause, keeping the elapsed time\n")
		fmt.Fprintf(os.Stderr, "  status                show the elapsed time\n")
		fmt.Fprintf(os.Stderr, "  stop -from P -to Q    save the elapsed time as a session and reset\n")
		fmt.Fprintf(os.Stderr, "  reset                 discard the elapsed time without saving it\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if len(args) == 0 {
		fs.Usage()
		return fmt.Errorf("timer action required")
	}
	cmd.Action = args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch cmd.Action {
	case "start":
		if cmd.ReadingID <= 0 {
			return fmt.Errorf("required flag -id not provided")
		}
	case "pause", "status", "stop", "reset":
	default:
		return fmt.Errorf("unknown timer action: %s", cmd.Action)
	}
	return nil
}

func (cmd *TimerCommand) Run() error {
	db, err := openStore(cmd.DatabasePath, "silent")
	if err != nil {
		return err
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	service := timer.NewService(db.DB)
	service.SetClock(cmd.now)

	var status timer.Status
	switch cmd.Action {
	case "start":
		book, err := repo.GetBook(uint(cmd.ReadingID))
		if err != nil {
			return fmt.Errorf("reading %d: %w", cmd.ReadingID, err)
		}
		if status, err = service.Start(cmd.ReadingID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.out, "Timing %q\n", book.Title)
	case "pause":
		if status, err = service.Pause(); err != nil {
			return err
		}
	case "status":
		if status, err = service.Status(); err != nil {
			return err
		}
	case "stop":
		session, err := service.Finish(cmd.StartPosition, cmd.EndPosition)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.out, "Saved session %d for reading %d: %s\n", session.ID, session.BookID, session.Duration())
		return nil
	case "reset":
		if status, err = service.Discard(); err != nil {
			return err
		}
		if status.ReadingID != timer.NoReading {
			fmt.Fprint(cmd.out, "Discarded: ")
		}
	}

	cmd.printStatus(status)
	return nil
}

func (cmd *TimerCommand) printStatus(s timer.Status) {
	if s.ReadingID == timer.NoReading {
		fmt.Fprintln(cmd.out, "No timer")
		return
	}
	state := "paused"
	if s.Running {
		state = "running"
	}
	elapsed := (time.Duration(s.ElapsedMs) * time.Millisecond).Truncate(time.Second)
	fmt.Fprintf(cmd.out, "Reading %d: %s, %s elapsed\n", s.ReadingID, state, elapsed)
}
