package tui

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const clipboardTimeout = 5 * time.Second

// clipboardTools are tried in order; env names the variable that must be set
// for the tool to reach a display server.
var clipboardTools = []struct {
	env     string
	command string
}{
	{"WAYLAND_DISPLAY", "wl-copy"},
	{"DISPLAY", "xclip -selection clipboard"},
	{"DISPLAY", "xsel --clipboard --input"},
}

// copyText pipes text into command, or into the first usable clipboard tool
// when command is empty.
func copyText(text, command string) error {
	if command == "" {
		command = clipboardCommand(os.Getenv, exec.LookPath)
	}
	args := strings.Fields(command)
	if len(args) == 0 {
		return fmt.Errorf("no clipboard tool found, set tui.clipboard")
	}

	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	var stderr bytes.Buffer
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdin = strings.NewReader(text)
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func clipboardCommand(getenv func(string) string, lookPath func(string) (string, error)) string {
	for _, t := range clipboardTools {
		if getenv(t.env) == "" {
			continue
		}
		if _, err := lookPath(strings.Fields(t.command)[0]); err == nil {
			return t.command
		}
	}
	return ""
}
