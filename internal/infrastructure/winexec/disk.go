package winexec

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/doeshing/wintool/internal/domain"
)

// DiskUsageFunc reports total and free bytes for a filesystem root.
type DiskUsageFunc func(ctx context.Context, path string) (total, free uint64, err error)

// GopsutilDiskUsage asks the OS directly, without spawning a process.
func GopsutilDiskUsage(ctx context.Context, path string) (uint64, uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	return usage.Total, usage.Free, nil
}

var driveRe = regexp.MustCompile(`^[A-Za-z]:$`)

// NormalizeDrive upper-cases a drive letter spec and applies the default.
func NormalizeDrive(drive string) (string, error) {
	drive = strings.TrimSpace(drive)
	if drive == "" {
		return domain.DefaultDrive, nil
	}
	if !driveRe.MatchString(drive) {
		return "", fmt.Errorf("invalid drive %q: expected a letter followed by a colon", drive)
	}
	return strings.ToUpper(drive), nil
}

// GetDiskSpace reports capacity for a drive such as "C:". Strategies run in
// order: WMIC, CIM through PowerShell, then the native API.
func (e *Executor) GetDiskSpace(ctx context.Context, drive string) (domain.DiskSpace, error) {
	drive, err := NormalizeDrive(drive)
	if err != nil {
		return domain.DiskSpace{}, err
	}
	attempts := []attempt[domain.DiskSpace]{
		{
			name: "wmic",
			tool: wmicTool,
			run: func(ctx context.Context) (domain.DiskSpace, error) {
				out, err := e.Run(ctx, domain.Query(domain.DialectWMIC, diskWMICQuery(drive)))
				if err != nil {
					return domain.DiskSpace{}, err
				}
				return ParseWMICDisk(drive, out)
			},
		},
		{
			name: "powershell",
			tool: e.powershell,
			run: func(ctx context.Context) (domain.DiskSpace, error) {
				out, err := e.Run(ctx, domain.Query(domain.DialectPowerShell, diskPowerShellQuery(drive)))
				if err != nil {
					return domain.DiskSpace{}, err
				}
				return ParsePowerShellDisk(drive, out)
			},
		},
	}
	if e.disk != nil {
		attempts = append(attempts, attempt[domain.DiskSpace]{
			name: "native",
			run: func(ctx context.Context) (domain.DiskSpace, error) {
				total, free, err := e.disk(ctx, drive+`\`)
				if err != nil {
					return domain.DiskSpace{}, &domain.ExecError{Op: "disk usage", Strategy: "native", Kind: domain.ErrKindSpawn, Err: err}
				}
				return domain.NewDiskSpace(drive, total, free), nil
			},
		})
	}
	ctx, done := e.track(ctx)
	defer done()
	res := runChain(ctx, e.available, attempts, e.queryObserver("disk"))
	if err := res.asError("Disk space query"); err != nil {
		return domain.DiskSpace{}, err
	}
	return res.value, nil
}

func diskWMICQuery(drive string) string {
	return fmt.Sprintf(`wmic logicaldisk where "DeviceID='%s'" get Size,FreeSpace /format:csv`, drive)
}

func diskPowerShellQuery(drive string) string {
	return fmt.Sprintf(`Get-CimInstance -ClassName Win32_LogicalDisk -Filter "DeviceID='%s'" | Select-Object Size,FreeSpace | ConvertTo-Json -Compress`, drive)
}

// ParseWMICDisk reads the Size and FreeSpace columns of the first data row.
func ParseWMICDisk(drive, output string) (domain.DiskSpace, error) {
	rows, err := ParseWMICCSV(output)
	if err != nil {
		return domain.DiskSpace{}, err
	}
	if len(rows) == 0 {
		return domain.DiskSpace{}, parseError("wmic disk output", fmt.Errorf("no row for %s", drive))
	}
	total, err := parseBytes("Size", rows[0]["Size"])
	if err != nil {
		return domain.DiskSpace{}, err
	}
	free, err := parseBytes("FreeSpace", rows[0]["FreeSpace"])
	if err != nil {
		return domain.DiskSpace{}, err
	}
	return domain.NewDiskSpace(drive, total, free), nil
}

// ParsePowerShellDisk decodes {"Size":..,"FreeSpace":..}. Drives without
// media report null sizes, which is an error.
func ParsePowerShellDisk(drive, output string) (domain.DiskSpace, error) {
	var raw struct {
		Size      json.Number `json:"Size"`
		FreeSpace json.Number `json:"FreeSpace"`
	}
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil || len(list) == 0 {
			return domain.DiskSpace{}, parseError("disk output", fmt.Errorf("no object for %s", drive))
		}
		trimmed = string(list[0])
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return domain.DiskSpace{}, parseError("disk output", err)
	}
	total, err := parseBytes("Size", raw.Size.String())
	if err != nil {
		return domain.DiskSpace{}, err
	}
	free, err := parseBytes("FreeSpace", raw.FreeSpace.String())
	if err != nil {
		return domain.DiskSpace{}, err
	}
	return domain.NewDiskSpace(drive, total, free), nil
}

func parseBytes(field, value string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, parseError("disk "+field, fmt.Errorf("%q is not a byte count", value))
	}
	return n, nil
}
