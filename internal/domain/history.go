package domain

import "time"

// ExecutionRecord captures one spawned command for the journal.
type ExecutionRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Dialect         Dialect   `json:"dialect"`
	Kind            string    `json:"kind"`
	Command         string    `json:"command"`
	Strategy        string    `json:"strategy"`
	Success         bool      `json:"success"`
	ExitCode        int       `json:"exit_code"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
	Error           string    `json:"error,omitempty"`
	ExpectedFailure bool      `json:"expected_failure"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
}

// CacheEntry is a cached read-only command result.
type CacheEntry struct {
	Key       string    `json:"key"`
	Dialect   Dialect   `json:"dialect"`
	Command   string    `json:"command"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// CacheStats summarises cache effectiveness for the current process.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
	TTL     time.Duration
}
