package winexec

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/ports"
)

const wmicServicesCSV = "\n" +
	"Node,DisplayName,Name,StartMode,State\n" +
	"HOST,Print Spooler,Spooler,Auto,Running\n" +
	"HOST,Windows Search,WSearch,Disabled,Stopped\n" +
	"HOST,Fax, legacy,Fax,Manual,Start Pending\n" +
	"\n"

const powerShellServicesJSON = `[` +
	`{"Name":"Spooler","DisplayName":"Print Spooler","Status":4,"StartType":2},` +
	`{"Name":"WSearch","DisplayName":"Windows Search","Status":1,"StartType":4},` +
	`{"Name":"Fax","DisplayName":"Fax, legacy","Status":2,"StartType":3}]`

var wantServices = []domain.Service{
	{Name: "Spooler", DisplayName: "Print Spooler", Status: "Running", StartType: "Automatic"},
	{Name: "WSearch", DisplayName: "Windows Search", Status: "Stopped", StartType: "Disabled"},
	{Name: "Fax", DisplayName: "Fax, legacy", Status: "StartPending", StartType: "Manual"},
}

func TestParseWMICCSV(t *testing.T) {
	rows, err := ParseWMICCSV("\r\nNode,Name,State\nHOST,Spooler,Running\nHOST,Fax\n\n")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"Node": "HOST", "Name": "Spooler", "State": "Running"}, rows[0])
	assert.Equal(t, "", rows[1]["State"], "missing trailing field becomes empty")

	rows, err = ParseWMICCSV("")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseWMICServicesRowCount(t *testing.T) {
	for n := 0; n <= 5; n++ {
		var b strings.Builder
		b.WriteString("Node,DisplayName,Name,StartMode,State\n")
		for i := 0; i < n; i++ {
			b.WriteString("HOST,Svc,svc,Manual,Stopped\n")
		}
		b.WriteString("\n")
		services, err := ParseWMICServices(b.String())
		require.NoError(t, err)
		assert.Len(t, services, n)
	}
}

func TestParseWMICServices(t *testing.T) {
	services, err := ParseWMICServices(wmicServicesCSV)
	require.NoError(t, err)
	assert.Equal(t, wantServices, services)
}

func TestParseWMICServicesDisplayNameWithCommas(t *testing.T) {
	output := "Node,DisplayName,Name,StartMode,State\n" +
		"HOST,Remote Access, Auto, Connection Manager,RasAuto,Manual,Stopped\n" +
		"HOST,\"Quoted, name\",Quoted,Disabled,Stopped\n"
	services, err := ParseWMICServices(output)
	require.NoError(t, err)
	assert.Equal(t, []domain.Service{
		{Name: "RasAuto", DisplayName: "Remote Access, Auto, Connection Manager", Status: "Stopped", StartType: "Manual"},
		{Name: "Quoted", DisplayName: "Quoted, name", Status: "Stopped", StartType: "Disabled"},
	}, services)
}

func TestServiceStatusName(t *testing.T) {
	want := map[int]string{
		1: "Stopped", 2: "StartPending", 3: "StopPending", 4: "Running",
		5: "ContinuePending", 6: "PausePending", 7: "Paused",
		0: "0", 8: "8", -1: "-1",
	}
	for code, name := range want {
		assert.Equal(t, name, ServiceStatusName(code), "code %d", code)
	}
}

func TestStartTypeName(t *testing.T) {
	want := map[int]string{
		0: "Boot", 1: "System", 2: "Automatic", 3: "Manual", 4: "Disabled",
		5: "5", 42: "42",
	}
	for code, name := range want {
		assert.Equal(t, name, StartTypeName(code), "code %d", code)
	}
}

func TestParsePowerShellServices(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []domain.Service
	}{
		{
			name:   "array with numeric enums",
			output: powerShellServicesJSON,
			want:   wantServices,
		},
		{
			name:   "single object",
			output: `{"Name":"Spooler","DisplayName":"Print Spooler","Status":4,"StartType":2}`,
			want:   wantServices[:1],
		},
		{
			name:   "string enums and unknown codes",
			output: `[{"Name":"a","DisplayName":"A","Status":"Running","StartType":"Manual"},{"Name":"b","DisplayName":"B","Status":9,"StartType":null}]`,
			want: []domain.Service{
				{Name: "a", DisplayName: "A", Status: "Running", StartType: "Manual"},
				{Name: "b", DisplayName: "B", Status: "9", StartType: ""},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePowerShellServices(tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParsePowerShellServices("Get-Service : not json")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindParse, domain.KindOf(err))
}

func TestGetWindowsServicesFromWMIC(t *testing.T) {
	runner := &fakeRunner{respond: func(_ context.Context, spec ports.ProcessSpec) (ports.ProcessResult, error) {
		if strings.Contains(commandLine(spec), servicesWMICQuery) {
			return stdout(wmicServicesCSV)
		}
		t.Fatalf("unexpected spawn: %s", commandLine(spec))
		return ports.ProcessResult{}, nil
	}}
	exec := New(Options{Runner: runner})

	services, err := exec.GetWindowsServices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantServices, services)
	assert.Equal(t, []string{domain.DefaultCmdPath}, runner.names())
}

func TestGetWindowsServicesFallsBackWhenWMICMissing(t *testing.T) {
	runner := &fakeRunner{respond: func(_ context.Context, spec ports.ProcessSpec) (ports.ProcessResult, error) {
		line := commandLine(spec)
		switch {
		case strings.Contains(line, servicesWMICQuery):
			return failure(domain.ErrKindExit, "'wmic' is not recognized as an internal or external command,\noperable program or batch file.")
		case strings.Contains(line, "Get-Service"):
			return stdout(powerShellServicesJSON)
		}
		t.Fatalf("unexpected spawn: %s", line)
		return ports.ProcessResult{}, nil
	}}
	exec := New(Options{Runner: runner})

	services, err := exec.GetWindowsServices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantServices, services)
	assert.Equal(t, []string{domain.DefaultCmdPath, domain.DefaultPowerShellPath}, runner.names())
}

func TestGetWindowsServicesSkipsUninstalledWMIC(t *testing.T) {
	runner := &fakeRunner{respond: func(context.Context, ports.ProcessSpec) (ports.ProcessResult, error) {
		return stdout(powerShellServicesJSON)
	}}
	exec := New(Options{Runner: runner, Probe: stubProbe{missing: map[string]bool{wmicTool: true}}})

	services, err := exec.GetWindowsServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, 3)
	assert.Equal(t, []string{domain.DefaultPowerShellPath}, runner.names())
}

func TestGetWindowsServicesAllStrategiesFail(t *testing.T) {
	runner := &fakeRunner{respond: func(context.Context, ports.ProcessSpec) (ports.ProcessResult, error) {
		return failure(domain.ErrKindExit, "Access is denied.")
	}}
	exec := New(Options{Runner: runner})

	services, err := exec.GetWindowsServices(context.Background())
	require.Error(t, err)
	assert.Nil(t, services)
	assert.True(t, strings.HasPrefix(err.Error(), "Windows services query failed: "), err.Error())
}

func TestGetWindowsServicesUsesCache(t *testing.T) {
	runner := &fakeRunner{respond: func(context.Context, ports.ProcessSpec) (ports.ProcessResult, error) {
		return stdout(wmicServicesCSV)
	}}
	exec := New(Options{Runner: runner})

	for i := 0; i < 3; i++ {
		_, err := exec.GetWindowsServices(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, runner.spawns())
}
