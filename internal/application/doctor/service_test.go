package doctor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/doeshing/wintool/internal/domain"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type stubTools map[string]bool

func (s stubTools) Available(name string) bool { return s[name] }
func (s stubTools) Tools() []domain.ToolStatus { return nil }

type stubHost struct {
	build int
}

func (s stubHost) Host(context.Context) (domain.HostFacts, error) {
	return domain.HostFacts{Platform: "Microsoft Windows 11 Pro", Build: s.build}, nil
}

type stubClassifier bool

func (s stubClassifier) Classify(string, string) domain.FailureClassification {
	return domain.FailureClassification{Expected: bool(s)}
}

type stubHistory struct {
	err error
}

func (s stubHistory) Save(domain.ExecutionRecord) error { return nil }
func (s stubHistory) Records(int, string) ([]domain.ExecutionRecord, error) {
	return nil, s.err
}
func (s stubHistory) Prune(time.Time) (int64, error) { return 0, nil }
func (s stubHistory) Clear() error                   { return nil }
func (s stubHistory) ExportJSON(string) error        { return nil }
func (s stubHistory) Path() string                   { return "/tmp/history.db" }

func findCheck(t *testing.T, report domain.HealthReport, name string) domain.HealthCheck {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %q missing from %+v", name, report.Checks)
	return domain.HealthCheck{}
}

func TestDoctorHealthyHost(t *testing.T) {
	svc := &Service{
		ConfigProvider: stubConfig{cfg: domain.Config{ConfigFormatVersion: "1", History: domain.HistorySettings{Enabled: true}}},
		Tools:          stubTools{"powershell.exe": true, "cmd.exe": true, "wmic.exe": true},
		Host:           stubHost{build: 22631},
		History:        stubHistory{},
		Classifier:     stubClassifier(true),
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	for _, check := range report.Checks {
		if check.Status != domain.HealthOK {
			t.Fatalf("expected all checks ok, got %+v", check)
		}
	}
	if host := findCheck(t, report, "Host"); !strings.Contains(host.Details, "build 22631") {
		t.Fatalf("expected build in host details, got %s", host.Details)
	}
}

func TestDoctorWarnsAboutMissingWMICOnNewBuilds(t *testing.T) {
	svc := &Service{
		ConfigProvider: stubConfig{cfg: domain.Config{}},
		Tools:          stubTools{"powershell.exe": true, "cmd.exe": true},
		Host:           stubHost{build: 26100},
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	wmic := findCheck(t, report, "WMIC")
	if wmic.Status != domain.HealthWarn || !strings.Contains(wmic.Details, "26100") {
		t.Fatalf("unexpected WMIC check: %+v", wmic)
	}
	if journal := findCheck(t, report, "Journal"); journal.Status != domain.HealthWarn {
		t.Fatalf("expected disabled journal warning, got %+v", journal)
	}
}

func TestDoctorFailures(t *testing.T) {
	svc := &Service{
		ConfigProvider: stubConfig{cfg: domain.Config{History: domain.HistorySettings{Enabled: true}}},
		Tools:          stubTools{},
		History:        stubHistory{err: errors.New("database is locked")},
		Classifier:     stubClassifier(false),
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if check := findCheck(t, report, "Interpreters"); check.Status != domain.HealthError {
		t.Fatalf("expected interpreter failure, got %+v", check)
	}
	if check := findCheck(t, report, "Journal"); check.Status != domain.HealthError {
		t.Fatalf("expected journal failure, got %+v", check)
	}
	if check := findCheck(t, report, "Expected-failure rules"); check.Status != domain.HealthWarn {
		t.Fatalf("expected rules warning, got %+v", check)
	}
}

func TestDoctorConfigError(t *testing.T) {
	svc := &Service{ConfigProvider: stubConfig{err: errors.New("bad yaml")}}
	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(report.Checks) != 1 || report.Checks[0].Status != domain.HealthError {
		t.Fatalf("unexpected report: %+v", report)
	}
}
