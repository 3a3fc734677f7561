//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProcess starts the daemon in a new process group so the
// CLI's console can close without taking the daemon down with it
func configureDaemonProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
