package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Executor defaults
const (
	DefaultPowerShellPath = "powershell.exe"
	DefaultCmdPath        = "cmd.exe"
	DefaultDrive          = "C:"
	// DefaultCommandTimeout bounds a single strategy attempt.
	DefaultCommandTimeout = 30 * time.Second
	// DefaultMaxOutputBytes caps buffered stdout and stderr, each.
	DefaultMaxOutputBytes = 10 * 1024 * 1024
	// DefaultCacheTTL is how long a read-only result stays valid.
	DefaultCacheTTL = 30 * time.Second
	// DefaultToolCacheDuration is how long tool availability is cached
	DefaultToolCacheDuration = 10 * time.Minute
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
	// DefaultHistoryRetainDays is the default number of days to retain history
	DefaultHistoryRetainDays = 30
)

// WMICRemovedBuild is the first Windows build that ships without WMIC by default.
const WMICRemovedBuild = 26100

// DefaultKnownAbsentServices are commonly missing or disabled on stock installs.
var DefaultKnownAbsentServices = []string{
	"Fax",
	"WSearch",
	"XblAuthManager",
	"XblGameSave",
	"XboxNetApiSvc",
	"XboxGipSvc",
	"MapsBroker",
	"RetailDemo",
	"DiagTrack",
	"dmwappushservice",
	"lfsvc",
	"WMPNetworkSvc",
	"RemoteRegistry",
}

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
