//go:build !windows

package winexec

import "os/exec"

// Off Windows argv is passed as-is, so there is no raw command line to set.
func setRawCommandLine(*exec.Cmd, string, []string) {}

func hideWindow(*exec.Cmd) {}
