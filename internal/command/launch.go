package command

import (
	"os/exec"
	"strconv"
)

// DefaultLaunch forks a shell to run command, approximating the
// original_source/Task `fork`+`setpriority`+`execl("/bin/sh", "-c",
// ...)` sequence with the portable `nice` wrapper rather than a raw
// setpriority syscall.
func DefaultLaunch(command string, niceness int) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if niceness != 0 {
		cmd = exec.Command("nice", "-n", strconv.Itoa(niceness), "sh", "-c", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}
