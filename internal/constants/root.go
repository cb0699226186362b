package constants

import "time"

const (
	AppName            = "totalrecover"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/totalrecover/totalrecover.db"
	Version            = "v0.3.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "totalrecover-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "totalrecover-notifier.lock"
	NotificationDurationMs = 8000
	TrayAppIdentifier      = "com.yndrdev.totalrecover"
	TrayAppExecutable      = "totalrecover-tray"

	// EnvDBConnection holds a Postgres connection string when the keyring is not used
	EnvDBConnection = "TOTALRECOVER_DB_CONNECTION"
)
