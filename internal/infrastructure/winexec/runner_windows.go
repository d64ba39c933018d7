//go:build windows

package winexec

import (
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// setRawCommandLine hands the argument string to CreateProcess untouched.
// cmd.exe does its own quote parsing and breaks on Go's per-argument escaping.
func setRawCommandLine(c *exec.Cmd, name string, args []string) {
	ensureSysProcAttr(c)
	c.SysProcAttr.CmdLine = syscall.EscapeArg(name) + " " + strings.Join(args, " ")
}

func hideWindow(c *exec.Cmd) {
	ensureSysProcAttr(c)
	c.SysProcAttr.HideWindow = true
	c.SysProcAttr.CreationFlags |= windows.CREATE_NO_WINDOW
}

func ensureSysProcAttr(c *exec.Cmd) {
	if c.SysProcAttr == nil {
		c.SysProcAttr = &syscall.SysProcAttr{}
	}
}
