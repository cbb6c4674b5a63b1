package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// spawnFn launches a detached process. Injectable for tests.
type spawnFn func(name string, args ...string) error

func detachedSpawn(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child so it doesn't linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

// ForHost selects the notification backend for the current platform:
// terminal-notifier on macOS, notify-send on Linux, a silent no-op anywhere
// else.
func ForHost() Backend {
	switch runtime.GOOS {
	case "darwin":
		return &TerminalNotifier{}
	case "linux":
		return &NotifySend{}
	default:
		return Nop{}
	}
}

// TerminalNotifier drives the terminal-notifier CLI on macOS. It supports
// click actions natively, so Open and Execute ride along on the same call.
type TerminalNotifier struct {
	spawn spawnFn
	look  func(file string) (string, error)
}

func (t *TerminalNotifier) Name() string { return "terminal-notifier" }

func (t *TerminalNotifier) Probe() bool {
	look := t.look
	if look == nil {
		look = exec.LookPath
	}
	_, err := look("terminal-notifier")
	return err == nil
}

func (t *TerminalNotifier) Send(req Request) error {
	args := []string{"-title", req.Title, "-message", req.Message}
	if req.Group != "" {
		args = append(args, "-group", req.Group)
	}
	if req.Open != "" {
		args = append(args, "-open", req.Open)
	}
	if req.Execute != "" {
		args = append(args, "-execute", req.Execute)
	}

	spawn := t.spawn
	if spawn == nil {
		spawn = detachedSpawn
	}
	return spawn("terminal-notifier", args...)
}

// NotifySend drives notify-send on Linux desktops. notify-send has no click
// actions, so Execute runs as a second, independent process launch.
type NotifySend struct {
	spawn spawnFn
	look  func(file string) (string, error)
}

func (n *NotifySend) Name() string { return "notify-send" }

func (n *NotifySend) Probe() bool {
	look := n.look
	if look == nil {
		look = exec.LookPath
	}
	_, err := look("notify-send")
	return err == nil
}

func (n *NotifySend) Send(req Request) error {
	args := []string{"--app-name", "beacon"}
	if req.Group != "" {
		args = append(args, "--category", req.Group)
	}
	args = append(args, req.Title, req.Message)

	spawn := n.spawn
	if spawn == nil {
		spawn = detachedSpawn
	}
	if err := spawn("notify-send", args...); err != nil {
		return err
	}

	if req.Execute != "" {
		fields := strings.Fields(req.Execute)
		if len(fields) == 0 {
			return nil
		}
		if err := spawn(fields[0], fields[1:]...); err != nil {
			slog.Warn("companion command failed", "command", fields[0], "error", err)
		}
	}
	return nil
}

// Nop is the backend for platforms without a supported notifier.
type Nop struct{}

func (Nop) Name() string { return "none" }

func (Nop) Probe() bool { return false }

func (Nop) Send(Request) error {
	return fmt.Errorf("no notification backend on %s", runtime.GOOS)
}
