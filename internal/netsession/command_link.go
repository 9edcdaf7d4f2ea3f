package netsession

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// CommandLink drives the host's network manager through configured shell
// command templates (nmcli by default) and polls the kernel operstate file
// for link status. {ssid} and {password} placeholders are substituted after
// the template is tokenized, so credentials containing spaces or quotes
// never go through shell parsing.
type CommandLink struct {
	SSID      string
	Password  string
	UpCmd     string
	DownCmd   string
	StatePath string
}

func (l *CommandLink) Up(ctx context.Context) error {
	return l.run(ctx, l.UpCmd)
}

func (l *CommandLink) Down(ctx context.Context) error {
	return l.run(ctx, l.DownCmd)
}

func (l *CommandLink) Status(_ context.Context) (bool, error) {
	b, err := os.ReadFile(l.StatePath)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", l.StatePath, err)
	}
	return strings.TrimSpace(string(b)) == "up", nil
}

func (l *CommandLink) run(ctx context.Context, tmpl string) error {
	args, err := shlex.Split(tmpl)
	if err != nil {
		return fmt.Errorf("parse command %q: %w", tmpl, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("empty command template")
	}
	for i, a := range args {
		a = strings.ReplaceAll(a, "{ssid}", l.SSID)
		a = strings.ReplaceAll(a, "{password}", l.Password)
		args[i] = a
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
