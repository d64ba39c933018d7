package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"text/tabwriter"

	"github.com/doeshing/wintool/internal/domain"
)

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]string{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestWriteStructured(t *testing.T) {
	services := []domain.Service{{Name: "Spooler", Status: "Running"}}

	var buf bytes.Buffer
	if err := WriteStructured(&buf, FormatJSON, services, nil); err != nil {
		t.Fatalf("json error: %v", err)
	}
	var decoded []domain.Service
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || decoded[0].Name != "Spooler" {
		t.Fatalf("json round trip = %+v, %v", decoded, err)
	}

	buf.Reset()
	if err := WriteStructured(&buf, FormatYAML, services, nil); err != nil {
		t.Fatalf("yaml error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: Spooler") {
		t.Fatalf("yaml output missing name: %q", buf.String())
	}

	buf.Reset()
	err := WriteStructured(&buf, FormatTable, services, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "NAME\tSTATUS")
		fmt.Fprintln(w, "Spooler\tRunning")
	})
	if err != nil {
		t.Fatalf("table error: %v", err)
	}
	if !strings.Contains(buf.String(), "Spooler  Running") {
		t.Fatalf("table not aligned: %q", buf.String())
	}
}

func TestFormatBytesAndPercent(t *testing.T) {
	cases := map[uint64]string{0: "0 B", 1023: "1023 B", 1024: "1.0 KiB", 1536: "1.5 KiB", 500 * 1024 * 1024 * 1024: "500.0 GiB"}
	for n, want := range cases {
		if got := FormatBytes(n); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", n, got, want)
		}
	}
	if got := Percent(25, 100); got != 25 {
		t.Fatalf("Percent = %v", got)
	}
	if got := Percent(1, 0); got != 0 {
		t.Fatalf("Percent with zero whole = %v", got)
	}
}

func TestSummarizeJournal(t *testing.T) {
	records := []domain.ExecutionRecord{
		{Command: "Get-Service", Strategy: "direct", Success: true, ExecutionTimeMS: 120},
		{Command: "Get-Service", Strategy: "cmd-wrapper", Success: true, ExecutionTimeMS: 300},
		{Command: "sc query Fax", Strategy: "cmd", ErrorKind: domain.ErrKindExit, ExpectedFailure: true, ExecutionTimeMS: 40},
	}

	summary := SummarizeJournal(records)
	if summary.Total != 3 || summary.Successful != 2 || summary.Expected != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.ErrorKinds[domain.ErrKindExit] != 1 {
		t.Fatalf("exit failures = %d", summary.ErrorKinds[domain.ErrKindExit])
	}
	if summary.Slowest.Strategy != "cmd-wrapper" || summary.SlowestDuration().Milliseconds() != 300 {
		t.Fatalf("slowest = %+v", summary.Slowest)
	}
	top := CalculateTopCommands(summary.Commands, 1)
	if len(top) != 1 || top[0].Command != "Get-Service" || top[0].Count != 2 {
		t.Fatalf("top commands = %+v", top)
	}
	if keys := SortedKeys(summary.Strategies); strings.Join(keys, ",") != "cmd,cmd-wrapper,direct" {
		t.Fatalf("sorted strategies = %v", keys)
	}
}

func TestSpinnerSkipsNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Fatalf("buffer reported as terminal")
	}
	stop := StartSpinner(&buf)
	stop()
	if buf.Len() != 0 {
		t.Fatalf("spinner wrote to a non-terminal: %q", buf.String())
	}
}

func TestSpinnerStartStop(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
	if !strings.Contains(buf.String(), "\r\033[K") {
		t.Fatalf("spinner did not clear its line: %q", buf.String())
	}
}
