package helpers

import (
	"strings"
	"testing"
)

const commentedConfig = `# wintool settings
executor:
  # seconds per attempt
  default_timeout: 30s # keep short
  drive: "C:"
cache:
  enabled: true
`

func TestConfigDocumentSetKeepsComments(t *testing.T) {
	doc, err := ParseConfigDocument([]byte(commentedConfig))
	if err != nil {
		t.Fatalf("ParseConfigDocument error: %v", err)
	}

	if err := doc.Set(SplitKeyPath("executor.default_timeout"), "45s"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := doc.Set(SplitKeyPath("classifier.known_absent_services"), "[Fax, WSearch]"); err != nil {
		t.Fatalf("Set nested error: %v", err)
	}

	raw, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	out := string(raw)
	for _, want := range []string{"# wintool settings", "# seconds per attempt", "# keep short", "default_timeout: 45s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("encoded config lost %q:\n%s", want, out)
		}
	}

	cfg, err := doc.Decode()
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if cfg.Executor.DefaultTimeout != "45s" || cfg.Executor.Drive != "C:" {
		t.Fatalf("executor = %+v", cfg.Executor)
	}
	if got := strings.Join(cfg.Classifier.KnownAbsentServices, ","); got != "Fax,WSearch" {
		t.Fatalf("known absent = %q", got)
	}
}

func TestConfigDocumentLookup(t *testing.T) {
	doc, err := ParseConfigDocument([]byte(commentedConfig))
	if err != nil {
		t.Fatalf("ParseConfigDocument error: %v", err)
	}
	node, ok := doc.Lookup(SplitKeyPath(" cache . enabled "))
	if !ok || node.Value != "true" {
		t.Fatalf("Lookup = %+v, %v", node, ok)
	}
	if _, ok := doc.Lookup([]string{"cache", "ttl"}); ok {
		t.Fatalf("missing key reported as found")
	}
	if _, ok := doc.Lookup([]string{"executor", "drive", "deeper"}); ok {
		t.Fatalf("scalar treated as a section")
	}
}

func TestConfigDocumentSetThroughScalarFails(t *testing.T) {
	doc, err := ParseConfigDocument([]byte(commentedConfig))
	if err != nil {
		t.Fatalf("ParseConfigDocument error: %v", err)
	}
	if err := doc.Set([]string{"executor", "drive", "letter"}, "D"); err == nil {
		t.Fatalf("expected error when descending into a scalar")
	}
}

func TestParseConfigDocumentEmptyAndInvalid(t *testing.T) {
	doc, err := ParseConfigDocument(nil)
	if err != nil {
		t.Fatalf("empty document error: %v", err)
	}
	if err := doc.Set([]string{"metrics", "listen"}, "localhost:9182"); err != nil {
		t.Fatalf("Set on empty document: %v", err)
	}
	cfg, err := doc.Decode()
	if err != nil || cfg.Metrics.Listen != "localhost:9182" {
		t.Fatalf("Decode = %+v, %v", cfg.Metrics, err)
	}

	if _, err := ParseConfigDocument([]byte("- just\n- a list\n")); err == nil {
		t.Fatalf("expected error for non-mapping root")
	}
}

func TestParseYAMLValue(t *testing.T) {
	if node := ParseYAMLValue("[Fax, WSearch]"); len(node.Content) != 2 {
		t.Fatalf("list value parsed as %+v", node)
	}
	if node := ParseYAMLValue("45s"); node.Value != "45s" {
		t.Fatalf("scalar value parsed as %+v", node)
	}
	if node := ParseYAMLValue(""); node.Tag != "!!str" || node.Value != "" {
		t.Fatalf("empty value parsed as %+v", node)
	}
	if node := ParseYAMLValue("{broken"); node.Value != "{broken" {
		t.Fatalf("invalid YAML should stay literal, got %+v", node)
	}
}
