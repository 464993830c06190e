// Package editor resolves and launches the editor used to open worktrees.
//
// Resolution order: the configured editor.command, then $VISUAL, then
// $EDITOR, then the first known editor found on PATH.
package editor

import (
	"os"
	"os/exec"
	"strings"
	"syscall"

	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/logger"
)

// Editor pairs a display name with the executable that launches it.
type Editor struct {
	Name    string
	Command string
}

// Known lists the editors grove can detect, in detection priority order.
var Known = []Editor{
	{Name: "Visual Studio Code", Command: "code"},
	{Name: "Cursor", Command: "cursor"},
	{Name: "Zed", Command: "zed"},
	{Name: "Sublime Text", Command: "subl"},
	{Name: "Neovim", Command: "nvim"},
	{Name: "Vim", Command: "vim"},
	{Name: "Emacs", Command: "emacs"},
	{Name: "IntelliJ IDEA", Command: "idea"},
	{Name: "PyCharm", Command: "pycharm"},
}

// Detect returns the known editors installed on this machine.
func Detect() []Editor {
	var installed []Editor
	for _, ed := range Known {
		if _, err := exec.LookPath(ed.Command); err == nil {
			installed = append(installed, ed)
		}
	}
	return installed
}

// Resolve picks the editor command to use. configured comes from
// .grove.yaml and wins when set; it may include arguments.
func Resolve(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual, nil
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return ed, nil
	}
	for _, ed := range Known {
		if _, err := exec.LookPath(ed.Command); err == nil {
			return ed.Command, nil
		}
	}
	return "", groveerrors.EditorNotFound()
}

// Open launches command with path as its argument, detached from grove in
// its own session so the editor survives grove exiting. Standard streams are
// left unwired, which connects them to /dev/null.
func Open(command, path string) error {
	log := logger.ComponentLogger("editor")

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return groveerrors.EditorNotFound()
	}
	args := append(parts[1:], path)

	cmd := exec.Command(parts[0], args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return groveerrors.EditorLaunchFailed(command, err)
	}
	log.Info("Editor launched", "command", command, "path", path, "pid", cmd.Process.Pid)

	return cmd.Process.Release()
}
