package commands

import "time"

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrExecutorUnavailable      = "executor unavailable"
	ErrRegistryUnavailable      = "registry reader unavailable"
	ErrInvalidRetainDays        = "--days must be > 0"
	ErrInvalidInterval          = "--interval must be positive"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgNoCachedResults          = "No cached results in this process."
)

// Output formats
const (
	// TimestampFormat renders journal timestamps in local time.
	TimestampFormat = "2006-01-02 15:04:05"
	// MaxHistoryAnalysisRecords bounds the records read by `history stats`.
	MaxHistoryAnalysisRecords = 1000
)

// DefaultMonitorInterval is the refresh period of `monitor`.
const DefaultMonitorInterval = 10 * time.Second
