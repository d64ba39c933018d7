package winexec

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

const (
	servicesWMICQuery       = "wmic service get Name,DisplayName,State,StartMode /format:csv"
	servicesPowerShellQuery = "Get-Service | Select-Object Name,DisplayName,Status,StartType | ConvertTo-Json -Compress"

	wmicTool = "wmic.exe"
)

var serviceStatusNames = map[int]string{
	1: "Stopped",
	2: "StartPending",
	3: "StopPending",
	4: "Running",
	5: "ContinuePending",
	6: "PausePending",
	7: "Paused",
}

var startTypeNames = map[int]string{
	0: "Boot",
	1: "System",
	2: "Automatic",
	3: "Manual",
	4: "Disabled",
}

// ServiceStatusName maps a ServiceControllerStatus code to its name. Unknown
// codes come back as their decimal form.
func ServiceStatusName(code int) string {
	if name, ok := serviceStatusNames[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}

// StartTypeName maps a ServiceStartMode code to its name. Unknown codes come
// back as their decimal form.
func StartTypeName(code int) string {
	if name, ok := startTypeNames[code]; ok {
		return name
	}
	return strconv.Itoa(code)
}

// GetWindowsServices lists installed services, asking WMIC first and falling
// back to Get-Service where WMIC is missing or broken.
func (e *Executor) GetWindowsServices(ctx context.Context) ([]domain.Service, error) {
	attempts := []attempt[[]domain.Service]{
		{
			name: "wmic",
			tool: wmicTool,
			run: func(ctx context.Context) ([]domain.Service, error) {
				out, err := e.Run(ctx, domain.Query(domain.DialectWMIC, servicesWMICQuery))
				if err != nil {
					return nil, err
				}
				return nonEmpty(ParseWMICServices(out))
			},
		},
		{
			name: "powershell",
			tool: e.powershell,
			run: func(ctx context.Context) ([]domain.Service, error) {
				out, err := e.Run(ctx, domain.Query(domain.DialectPowerShell, servicesPowerShellQuery))
				if err != nil {
					return nil, err
				}
				return nonEmpty(ParsePowerShellServices(out))
			},
		},
	}
	ctx, done := e.track(ctx)
	defer done()
	res := runChain(ctx, e.available, attempts, e.queryObserver("services"))
	if err := res.asError("Windows services query"); err != nil {
		return nil, err
	}
	return res.value, nil
}

// ParseWMICServices converts WMIC CSV output to services. WMIC spells states
// with spaces ("Start Pending") and start modes in short form ("Auto"); both
// are normalised to the names Get-Service uses. Commas inside a display name
// are kept.
func ParseWMICServices(output string) ([]domain.Service, error) {
	rows, err := parseWMICRows(output, "DisplayName")
	if err != nil {
		return nil, err
	}
	services := make([]domain.Service, 0, len(rows))
	for _, row := range rows {
		services = append(services, domain.Service{
			Name:        row["Name"],
			DisplayName: row["DisplayName"],
			Status:      strings.ReplaceAll(row["State"], " ", ""),
			StartType:   wmicStartMode(row["StartMode"]),
		})
	}
	return services, nil
}

func wmicStartMode(mode string) string {
	if strings.EqualFold(mode, "Auto") {
		return "Automatic"
	}
	return mode
}

type psService struct {
	Name        string          `json:"Name"`
	DisplayName string          `json:"DisplayName"`
	Status      json.RawMessage `json:"Status"`
	StartType   json.RawMessage `json:"StartType"`
}

// ParsePowerShellServices decodes ConvertTo-Json output. A single service is
// serialised as an object rather than an array; both are accepted. Enums may
// arrive as numbers (Windows PowerShell) or strings.
func ParsePowerShellServices(output string) ([]domain.Service, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, nil
	}
	var raw []psService
	if strings.HasPrefix(trimmed, "{") {
		var single psService
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, parseError("Get-Service output", err)
		}
		raw = []psService{single}
	} else if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, parseError("Get-Service output", err)
	}
	services := make([]domain.Service, 0, len(raw))
	for _, s := range raw {
		services = append(services, domain.Service{
			Name:        s.Name,
			DisplayName: s.DisplayName,
			Status:      enumName(s.Status, ServiceStatusName),
			StartType:   enumName(s.StartType, StartTypeName),
		})
	}
	return services, nil
}

func enumName(raw json.RawMessage, name func(int) string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var code int
	if err := json.Unmarshal(raw, &code); err == nil {
		return name(code)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

func nonEmpty(services []domain.Service, err error) ([]domain.Service, error) {
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, parseError("service list", fmt.Errorf("no services reported"))
	}
	return services, nil
}

func parseError(what string, err error) error {
	return &domain.ExecError{Op: "parse " + what, Kind: domain.ErrKindParse, Err: err}
}

// queryObserver logs strategy fallbacks of structured queries. The inner
// command chain has already logged and counted each process attempt.
func (e *Executor) queryObserver(query string) attemptObserver {
	return func(name string, err error, _ time.Duration, remaining int) {
		if err == nil {
			e.logger.Debug("query answered", map[string]interface{}{"query": query, "strategy": name})
			return
		}
		if remaining > 0 {
			e.logger.Debug("query strategy failed, falling back", map[string]interface{}{
				"query":    query,
				"strategy": name,
				"error":    err.Error(),
			})
		}
	}
}
