package system

import (
	"fmt"
	"time"

	"github.com/yndrdev/totalrecover/internal/backup"
	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
	"github.com/yndrdev/totalrecover/internal/phase"
	"github.com/yndrdev/totalrecover/internal/utils"
	"github.com/yndrdev/totalrecover/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	// needsDB checks are skipped when the database is unreachable
	needsDB bool
	// warnOnly failures do not fail the command
	warnOnly bool
	run      func(*cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Settings", needsDB: true, run: checkSettings},
	{name: "Phase tables", needsDB: true, run: checkPhaseTables},
	{name: "Protocols", needsDB: true, run: checkProtocols},
	{name: "Patients", needsDB: true, run: checkPatients},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	st, err := m.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if st.Current > st.Latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", st.Current, st.Latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	st, err := m.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if n := st.Pending(); n > 0 {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'migrate')", st.Current, st.Latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'backup create'")
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("invalid timezone %q", settings.Timezone)
	}
	if settings.TimelineStart > settings.TimelineEnd {
		return fmt.Errorf("timeline_start (%d) is after timeline_end (%d)", settings.TimelineStart, settings.TimelineEnd)
	}
	if settings.TimelineStart < constants.MinTimelineStart || settings.TimelineEnd > constants.MaxTimelineEnd {
		return fmt.Errorf("timeline range %d to %d exceeds days %d to %d", settings.TimelineStart, settings.TimelineEnd, constants.MinTimelineStart, constants.MaxTimelineEnd)
	}
	if _, err := phase.ForGranularity(settings.PhaseGranularity); err != nil {
		return err
	}
	return nil
}

func checkPhaseTables(ctx *cli.Context) error {
	tables, err := ctx.Store.GetPhaseTables()
	if err != nil {
		return fmt.Errorf("failed to get phase tables: %w", err)
	}
	for surgeryType, table := range tables {
		if err := table.Validate(); err != nil {
			return fmt.Errorf("%s: %w", surgeryType, err)
		}
	}
	return nil
}

func checkProtocols(ctx *cli.Context) error {
	protocols, err := ctx.Store.GetAllProtocols()
	if err != nil {
		return fmt.Errorf("failed to get protocols: %w", err)
	}
	for _, p := range protocols {
		table, err := ctx.Tracker.PhaseTable(p.SurgeryType)
		if err != nil {
			return err
		}
		result := validation.New().WithPhases(table).ValidateProtocol(p)
		if result.HasErrors() {
			return fmt.Errorf("protocol %s: %w", p.ID, result.Err())
		}
	}
	return nil
}

func checkPatients(ctx *cli.Context) error {
	patients, err := ctx.Store.GetAllPatients()
	if err != nil {
		return fmt.Errorf("failed to get patients: %w", err)
	}
	for _, p := range patients {
		if _, err := utils.ParseDateInLocation(p.SurgeryDate, time.UTC); err != nil {
			return fmt.Errorf("patient %s has invalid surgery date %q", p.ID, p.SurgeryDate)
		}
		if p.Timezone != "" && !utils.ValidateTimezone(p.Timezone) {
			return fmt.Errorf("patient %s has invalid timezone %q", p.ID, p.Timezone)
		}
		if p.ProtocolID == "" {
			continue
		}
		if _, err := ctx.Store.GetProtocol(p.ProtocolID); err != nil {
			return fmt.Errorf("patient %s references protocol %s: %w", p.ID, p.ProtocolID, err)
		}
	}
	return nil
}

func checkClockTimezone(_ *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := utils.LoadLocation(models.DefaultSettings().Timezone); err != nil {
		return fmt.Errorf("failed to load local timezone: %w", err)
	}
	return nil
}
