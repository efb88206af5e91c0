//go:build windows

package audio

import (
	"os/exec"
	"syscall"
)

// hideWindow prevents the ffmpeg subprocess from flashing a console window.
func hideWindow(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}
