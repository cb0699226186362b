package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/cli/backups"
	"github.com/yndrdev/totalrecover/internal/cli/patients"
	"github.com/yndrdev/totalrecover/internal/cli/protocols"
	"github.com/yndrdev/totalrecover/internal/cli/recovery"
	"github.com/yndrdev/totalrecover/internal/cli/settings"
	"github.com/yndrdev/totalrecover/internal/cli/system"
	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/errors"
	"github.com/yndrdev/totalrecover/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite database path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string; use TOTALRECOVER_DB_CONNECTION, .pgpass or the OS keyring instead." env:"TOTALRECOVER_CONFIG" default:"${default_config}"`
	Debug   bool   `help:"Log debug output to stderr." env:"TOTALRECOVER_DEBUG"`

	Init     system.InitCmd       `cmd:"" help:"Initialize storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Browse a patient's timeline interactively."`
	Notify   system.NotifyCmd     `cmd:"" help:"Send catch-up reminders through the tray app."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage the database connection string in the OS keyring."`
	DebugCmd system.DebugCmd      `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Settings settings.SettingsCmd `cmd:"" help:"Show or change settings."`

	Patient struct {
		Add     patients.PatientAddCmd     `cmd:"" help:"Add a patient."`
		List    patients.PatientListCmd    `cmd:"" help:"List patients."`
		Show    patients.PatientShowCmd    `cmd:"" help:"Show a patient and their recovery progress."`
		Edit    patients.PatientEditCmd    `cmd:"" help:"Edit a patient."`
		Delete  patients.PatientDeleteCmd  `cmd:"" help:"Delete a patient."`
		Restore patients.PatientRestoreCmd `cmd:"" help:"Restore a deleted patient."`
	} `cmd:"" help:"Manage patients."`

	Protocol struct {
		Import   protocols.ProtocolImportCmd   `cmd:"" help:"Import a protocol YAML file."`
		Validate protocols.ProtocolValidateCmd `cmd:"" help:"Check a protocol YAML file without importing it."`
		List     protocols.ProtocolListCmd     `cmd:"" help:"List protocols."`
		Show     protocols.ProtocolShowCmd     `cmd:"" help:"Show a protocol."`
		Delete   protocols.ProtocolDeleteCmd   `cmd:"" help:"Delete a protocol."`
	} `cmd:"" help:"Manage recovery protocols."`

	Assign   recovery.AssignCmd   `cmd:"" help:"Assign a protocol to a patient."`
	Day      recovery.DayCmd      `cmd:"" help:"Show a patient's tasks for one day."`
	Week     recovery.WeekCmd     `cmd:"" help:"Show the days of one week."`
	Timeline recovery.TimelineCmd `cmd:"" help:"Show a patient's recovery week by week."`
	Complete recovery.CompleteCmd `cmd:"" help:"Mark a task completed."`
	Skip     recovery.SkipCmd     `cmd:"" help:"Mark a task skipped."`
	Cancel   recovery.CancelCmd   `cmd:"" help:"Cancel a task that no longer applies."`
	Message  recovery.MessageCmd  `cmd:"" help:"File a conversation message under today."`
	Messages recovery.MessagesCmd `cmd:"" help:"Show the messages of one day."`
	Catchup  recovery.CatchUpCmd  `cmd:"" help:"List missed tasks to catch up on."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

// Commands that run without an initialized database.
var skipLoad = map[string]bool{
	"init":    true,
	"keyring": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Post-surgery recovery day and task tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	store, configDir, err := openStore(CLI.Config, CLI.Config == constants.DefaultConfigPath)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	logger.Debug("opened storage", "config", redactConfig(CLI.Config), "command", ctx.Command())

	appCtx := cli.NewContext(store)
	defer store.Close()

	command := strings.Fields(ctx.Command())
	if len(command) > 0 && !skipLoad[command[0]] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}
