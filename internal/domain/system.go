package domain

// Service is one Windows service as reported by WMIC or PowerShell.
type Service struct {
	Name        string `json:"Name" yaml:"name"`
	DisplayName string `json:"DisplayName" yaml:"display_name"`
	Status      string `json:"Status" yaml:"status"`
	StartType   string `json:"StartType" yaml:"start_type"`
}

// DiskSpace reports capacity of one logical drive in bytes.
// Used is always Total - Free.
type DiskSpace struct {
	Drive string `json:"drive" yaml:"drive"`
	Total uint64 `json:"total" yaml:"total"`
	Free  uint64 `json:"free" yaml:"free"`
	Used  uint64 `json:"used" yaml:"used"`
}

// NewDiskSpace derives Used from Total and Free. Free larger than Total is
// clamped so Used never wraps around.
func NewDiskSpace(drive string, total, free uint64) DiskSpace {
	if free > total {
		free = total
	}
	return DiskSpace{Drive: drive, Total: total, Free: free, Used: total - free}
}

// Overview bundles the facts gathered by `wintool overview`.
type Overview struct {
	Services []Service `json:"services" yaml:"services"`
	Disk     DiskSpace `json:"disk" yaml:"disk"`
}

// FailureClassification is the verdict of the expected-failure classifier.
type FailureClassification struct {
	Expected bool   `json:"expected" yaml:"expected"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ToolStatus reports whether an interpreter binary was found on PATH.
type ToolStatus struct {
	Name      string
	Path      string
	Available bool
}

// HostFacts are the host details shown by doctor.
type HostFacts struct {
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Build           int
}
