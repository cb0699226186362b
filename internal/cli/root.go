package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yndrdev/totalrecover/internal/backup"
	"github.com/yndrdev/totalrecover/internal/logger"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/storage"
	"github.com/yndrdev/totalrecover/internal/storage/sqlite"
	"github.com/yndrdev/totalrecover/internal/timeline"
	"github.com/yndrdev/totalrecover/internal/tracker"
)

type Context struct {
	Store   storage.Provider
	Tracker *tracker.Service
	// Out receives command output; os.Stdout when nil.
	Out io.Writer
}

// NewContext wires a tracker around store.
func NewContext(store storage.Provider) *Context {
	return &Context{
		Store:   store,
		Tracker: tracker.New(store),
	}
}

// Stdout returns the writer commands print to.
func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Print(args ...any) {
	fmt.Fprint(c.Stdout(), args...)
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

// IsSQLite reports whether the store is a local SQLite file.
func (c *Context) IsSQLite() bool {
	_, ok := c.Store.(*sqlite.Store)
	return ok
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if !c.IsSQLite() {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ErrAmbiguousPatient is returned when a patient reference matches more than
// one patient.
var ErrAmbiguousPatient = errors.New("patient reference is ambiguous")

// ResolvePatient finds a patient by exact ID, unique ID prefix, or
// case-insensitive name.
func (c *Context) ResolvePatient(ref string) (models.Patient, error) {
	if p, err := c.Store.GetPatient(ref); err == nil {
		return p, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Patient{}, err
	}

	patients, err := c.Store.GetAllPatients()
	if err != nil {
		return models.Patient{}, err
	}

	var matches []models.Patient
	for _, p := range patients {
		if strings.HasPrefix(p.ID, ref) || strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return models.Patient{}, fmt.Errorf("patient %q: %w", ref, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.Patient{}, fmt.Errorf("%q matches %d patients: %w", ref, len(matches), ErrAmbiguousPatient)
	}
}

// FormatDay labels a recovery day for display.
func FormatDay(day int) string {
	switch {
	case day < 0:
		return fmt.Sprintf("Day %d (%d days before surgery)", day, -day)
	case day == 0:
		return "Day 0 (surgery)"
	default:
		return "Day " + strconv.Itoa(day)
	}
}

// StatusIcon returns the marker printed next to a task instance.
func StatusIcon(status models.TaskStatus) string {
	switch status {
	case models.StatusCompleted:
		return "✓"
	case models.StatusMissed:
		return "✗"
	case models.StatusSkipped:
		return "↷"
	case models.StatusCancelled:
		return "⊘"
	case models.StatusUpcoming:
		return "·"
	default:
		return "○"
	}
}

// PrintDay writes a day summary with its task list.
func (c *Context) PrintDay(d models.DaySummary) {
	header := FormatDay(d.Day)
	if d.Date != "" {
		header += " · " + d.Date
	}
	c.Printf("%s · %s\n", header, strings.ReplaceAll(string(d.Phase), "_", " "))

	if len(d.Tasks) == 0 {
		c.Println("  No tasks scheduled")
	}
	for _, t := range d.Tasks {
		req := ""
		if t.Required {
			req = " *"
		}
		c.Printf("  %s %-28s %-10s %s%s\n", StatusIcon(t.Status), t.Title, t.TaskType, t.TaskDefinitionID, req)
	}

	counts := d.TaskCounts
	c.Printf("\n  %d/%d completed, %d pending, %d missed", counts.Completed, counts.Total, counts.Pending, counts.Missed)
	if counts.Skipped > 0 || counts.Cancelled > 0 {
		c.Printf(", %d skipped, %d cancelled", counts.Skipped, counts.Cancelled)
	}
	c.Println()
	if d.HasConversation {
		c.Println("  💬 conversation on this day")
	}
}

// PrintOutOfRange renders a timeline lookup outside the range as an empty
// day instead of an error. Other errors are returned unchanged.
func (c *Context) PrintOutOfRange(err error) error {
	var rangeErr *timeline.DayOutOfRangeError
	if errors.As(err, &rangeErr) {
		c.Printf("%s: No data for this day (timeline covers days %d to %d)\n", FormatDay(rangeErr.Day), rangeErr.Start, rangeErr.End)
		return nil
	}
	return err
}
