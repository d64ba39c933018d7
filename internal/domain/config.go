package domain

// Config mirrors ~/.wintool/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version" json:"config_format_version"`
	Executor            ExecutorSettings   `yaml:"executor" json:"executor"`
	Cache               CacheSettings      `yaml:"cache" json:"cache"`
	Classifier          ClassifierSettings `yaml:"classifier" json:"classifier"`
	History             HistorySettings    `yaml:"history" json:"history"`
	Metrics             MetricsSettings    `yaml:"metrics" json:"metrics"`
}

// ExecutorSettings controls how commands are spawned.
type ExecutorSettings struct {
	PowerShellPath    string `yaml:"powershell_path" json:"powershell_path"`
	CmdPath           string `yaml:"cmd_path" json:"cmd_path"`
	DefaultTimeout    string `yaml:"default_timeout" json:"default_timeout"`
	MaxOutputBytes    int    `yaml:"max_output_bytes" json:"max_output_bytes"`
	UseEncodedCommand bool   `yaml:"use_encoded_command" json:"use_encoded_command"`
	Drive             string `yaml:"drive" json:"drive"`
}

// CacheSettings configures the read-only result cache.
type CacheSettings struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	TTL     string `yaml:"ttl" json:"ttl"`
}

// ClassifierSettings configures expected-failure detection.
type ClassifierSettings struct {
	RulesFile           string   `yaml:"rules_file" json:"rules_file"`
	KnownAbsentServices []string `yaml:"known_absent_services" json:"known_absent_services"`
}

// HistorySettings configures the execution journal.
type HistorySettings struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Path          string `yaml:"path" json:"path"`
	RetentionDays int    `yaml:"retention_days" json:"retention_days"`
}

// MetricsSettings configures the Prometheus endpoint served by `monitor`.
type MetricsSettings struct {
	Listen string `yaml:"listen" json:"listen"`
}
