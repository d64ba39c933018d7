package cli

import "testing"

func TestParseGlobalFlags(t *testing.T) {
	cases := []struct {
		name string
		args []string
		in   Options
		want Options
	}{
		{name: "none", args: []string{"services"}, want: Options{}},
		{name: "verbose short", args: []string{"-v", "disk"}, want: Options{Verbose: true}},
		{name: "config separate", args: []string{"disk", "--config", `D:\cfg.yaml`}, want: Options{ConfigPath: `D:\cfg.yaml`}},
		{name: "config inline", args: []string{"--config=/tmp/c.yaml", "doctor"}, want: Options{ConfigPath: "/tmp/c.yaml"}},
		{name: "env verbose kept", args: []string{"doctor"}, in: Options{Verbose: true}, want: Options{Verbose: true}},
		{name: "verbose false", args: []string{"--verbose=false"}, in: Options{Verbose: true}, want: Options{}},
		{name: "stops at terminator", args: []string{"ps", "--", "-v"}, want: Options{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseGlobalFlags(tc.args, tc.in); got != tc.want {
				t.Fatalf("parseGlobalFlags(%q) = %+v, want %+v", tc.args, got, tc.want)
			}
		})
	}
}
