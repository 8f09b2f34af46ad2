//go:build windows

package ffmpeg

import (
	"os/exec"
	"syscall"
)

// hideWindow suppresses the console window for child processes on Windows.
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}
