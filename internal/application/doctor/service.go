package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Tools          ports.ToolProbe
	Host           ports.HostProbe
	History        ports.HistoryRepository
	Classifier     ports.FailureClassifier
}

// ruleSource is implemented by classifiers that know where their rules came from.
type ruleSource interface {
	Source() string
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))

	var build int
	if s.Host != nil {
		facts, err := s.Host.Host(ctx)
		if err != nil {
			checks = append(checks, warn("Host", err.Error()))
		} else {
			build = facts.Build
			checks = append(checks, ok("Host", describeHost(facts)))
		}
	}

	if s.Tools != nil {
		checks = append(checks, interpreterCheck(cfg, s.Tools))
		checks = append(checks, wmicCheck(s.Tools, build))
	} else {
		checks = append(checks, warn("Interpreters", "tool probe not initialized"))
	}

	if s.Classifier != nil {
		verdict := s.Classifier.Classify("sc query Fax", "The specified service does not exist as an installed service.")
		source := "rules loaded"
		if src, isSource := s.Classifier.(ruleSource); isSource {
			source = "rules from " + src.Source()
		}
		if verdict.Expected {
			checks = append(checks, ok("Expected-failure rules", source))
		} else {
			checks = append(checks, warn("Expected-failure rules", source+"; service queries are not covered"))
		}
	} else {
		checks = append(checks, warn("Expected-failure rules", "classifier not initialized"))
	}

	checks = append(checks, s.historyCheck(cfg))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) historyCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.History.Enabled {
		return warn("Journal", "disabled in config")
	}
	if s.History == nil {
		return warn("Journal", "store not initialized")
	}
	if _, err := s.History.Records(1, ""); err != nil {
		return fail("Journal", fmt.Sprintf("%s: %v", s.History.Path(), err))
	}
	return ok("Journal", s.History.Path())
}

func interpreterCheck(cfg domain.Config, tools ports.ToolProbe) domain.HealthCheck {
	powershell := tools.Available(cfg.PowerShellBinary())
	cmd := tools.Available(cfg.CmdBinary())
	switch {
	case powershell && cmd:
		return ok("Interpreters", fmt.Sprintf("%s and %s found", cfg.PowerShellBinary(), cfg.CmdBinary()))
	case powershell || cmd:
		var missing string
		if !powershell {
			missing = cfg.PowerShellBinary()
		} else {
			missing = cfg.CmdBinary()
		}
		return warn("Interpreters", missing+" not found; one fallback strategy is unavailable")
	default:
		return fail("Interpreters", fmt.Sprintf("neither %s nor %s found on PATH", cfg.PowerShellBinary(), cfg.CmdBinary()))
	}
}

func wmicCheck(tools ports.ToolProbe, build int) domain.HealthCheck {
	if tools.Available("wmic.exe") {
		if build >= domain.WMICRemovedBuild {
			return ok("WMIC", fmt.Sprintf("installed as an optional feature on build %d", build))
		}
		return ok("WMIC", "available")
	}
	if build >= domain.WMICRemovedBuild {
		return warn("WMIC", fmt.Sprintf("not shipped by default since build %d; PowerShell fallback is used", domain.WMICRemovedBuild))
	}
	return warn("WMIC", "not found; PowerShell fallback is used")
}

func describeHost(facts domain.HostFacts) string {
	parts := []string{}
	for _, part := range []string{facts.Platform, facts.PlatformVersion} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	if facts.Build > 0 {
		parts = append(parts, fmt.Sprintf("build %d", facts.Build))
	}
	if len(parts) == 0 {
		return "unknown platform"
	}
	return strings.Join(parts, ", ")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
