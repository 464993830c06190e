// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"github.com/gen2brain/beeep"

	"github.com/zhubert/grove/internal/logger"
)

// notifier matches beeep.Notify so tests can intercept notifications
// instead of raising real desktop popups.
type notifier func(title, message string, appIcon any) error

var notify notifier = beeep.Notify

// SetNotifier replaces the notification backend.
func SetNotifier(fn notifier) {
	notify = fn
}

// ResetNotifier restores the beeep backend.
func ResetNotifier() {
	notify = beeep.Notify
}

// Send sends a desktop notification with the given title and message.
// On macOS, it uses terminal-notifier or AppleScript.
// On Linux, it uses D-Bus or notify-send.
// On Windows, it uses the Windows Runtime COM API.
func Send(title, message string) error {
	log := logger.ComponentLogger("notification")

	// Empty icon lets beeep pick the platform default.
	if err := notify(title, message, ""); err != nil {
		log.Warn("Notification failed", "title", title, "error", err)
		return err
	}
	log.Debug("Notification sent", "title", title, "message", message)
	return nil
}

// EnvironmentCreated notifies that a new worktree environment is ready.
func EnvironmentCreated(branch string) error {
	return Send("Grove", branch+" is ready")
}

// EnvironmentRemoved notifies that a worktree environment was removed.
func EnvironmentRemoved(branch string) error {
	return Send("Grove", branch+" was removed")
}
