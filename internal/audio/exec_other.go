//go:build !windows

package audio

import "os/exec"

// hideWindow is a no-op outside Windows; there is no console to hide.
func hideWindow(cmd *exec.Cmd) {}
