package failures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierMatrix(t *testing.T) {
	c := Default()
	tests := []struct {
		command  string
		message  string
		expected bool
		category string
	}{
		{`reg query "HKLM\SOFTWARE\Missing"`, "ERROR: The system was unable to find the specified registry key or value.", true, "registry_query"},
		{`Get-ItemProperty -Path 'HKCU:\Software\Nope' -Name X`, "Cannot find path 'HKCU:\\Software\\Nope' because it does not exist.", true, "registry_query"},
		{"sc query Spooler", "[SC] EnumQueryServicesStatus:OpenService FAILED 1060:\n\nThe specified service does not exist as an installed service.", true, "service_control"},
		{"sc qc Spooler", "[SC] OpenService FAILED 5:\n\nAccess is denied.", true, "service_control"},
		{"sc.exe queryex Spooler", "some unrelated failure", false, "service_control"},
		{"wmic path Win32_Battery get EstimatedChargeRemaining", "No Instance(s) Available.", true, "wmic_query"},
		{"wmic service get Name /format:csv", "'wmic' is not recognized as an internal or external command,", true, "wmic_query"},
		{"wmic nonsense get x", "Invalid class", true, "wmic_query"},
		{"Get-Service -Name Nope", "Get-Service : Cannot find any service with service name 'Nope'.", true, "powershell_service_query"},
		{"Get-Service -Name Spooler", "Access is denied", true, "powershell_service_query"},
		// The category gate: the same message from an unrelated command is a real failure.
		{`dir C:\Windows\System32\config`, "Access is denied.", false, ""},
		{"Remove-Item C:\\x", "Cannot find path 'C:\\x' because it does not exist.", false, ""},
		{`reg add "HKLM\SOFTWARE\X" /v Y /d 1`, "ERROR: Access is denied.", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got := c.Classify(tt.command, tt.message)
			assert.Equal(t, tt.expected, got.Expected, "reason: %s", got.Reason)
			assert.Equal(t, tt.category, got.Category)
		})
	}
}

func TestKnownAbsentServicesIgnoreMessage(t *testing.T) {
	c := Default()
	for _, cmd := range []string{"sc query Fax", `sc qc "WSearch"`, "SC QDESCRIPTION xblgamesave", "sc queryex RemoteRegistry"} {
		got := c.Classify(cmd, "anything at all")
		assert.True(t, got.Expected, cmd)
		assert.Equal(t, "service_control", got.Category)
	}
	assert.False(t, c.Classify("sc query Spooler", "anything at all").Expected)
	assert.False(t, c.Classify("sc stop Fax", "anything at all").Expected, "only queries are covered")
}

func TestKnownAbsentOverride(t *testing.T) {
	c, err := NewClassifier("", []string{"Spooler"})
	require.NoError(t, err)
	assert.True(t, c.Classify("sc query Spooler", "boom").Expected)
	assert.False(t, c.Classify("sc query Fax", "boom").Expected)
}

func TestRulesFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `rules:
  expected_failures:
    - category: schtasks_query
      command_pattern: '^schtasks\s+/query'
      message_patterns:
        - 'cannot find the file specified'
  known_absent_services: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := NewClassifier(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, c.Source())
	require.Len(t, c.Rules(), 1)

	got := c.Classify(`schtasks /query /tn "\Microsoft\Missing"`, "ERROR: The system cannot find the file specified.")
	assert.True(t, got.Expected)
	assert.Equal(t, "schtasks_query", got.Category)
	assert.False(t, c.Classify("sc query Fax", "does not exist").Expected)
}

func TestMissingRulesFileFallsBackToDefaults(t *testing.T) {
	c, err := NewClassifier(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "built-in", c.Source())
	assert.Len(t, c.Rules(), 4)
}

func TestInvalidRulesAreRejected(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad regex":        "rules:\n  expected_failures:\n    - category: x\n      command_pattern: '('\n",
		"missing category": "rules:\n  expected_failures:\n    - command_pattern: 'x'\n",
		"not yaml":         "rules: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := NewClassifier(path, nil)
			assert.Error(t, err)
		})
	}
}

func TestNilClassifier(t *testing.T) {
	var c *Classifier
	assert.False(t, c.Classify("sc query Fax", "").Expected)
}
