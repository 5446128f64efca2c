package export

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrShareUnavailable = errors.New("share surface unavailable")

// Sharer hands an exported file or directory to whatever surface lets the
// user move it off the machine.
type Sharer interface {
	Share(ctx context.Context, path, mimeType string) error
}

type NoopSharer struct{}

func (NoopSharer) Share(ctx context.Context, path, mimeType string) error {
	return ErrShareUnavailable
}

// CommandSharer runs a configured command with the artifact path appended,
// e.g. "xdg-open" or "rclone copy --progress remote:emogo".
type CommandSharer struct {
	name string
	args []string
}

func NewCommandSharer(command string) Sharer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return NoopSharer{}
	}
	return &CommandSharer{name: fields[0], args: fields[1:]}
}

func (s *CommandSharer) Share(ctx context.Context, path, mimeType string) error {
	if _, err := exec.LookPath(s.name); err != nil {
		return fmt.Errorf("%w: %v", ErrShareUnavailable, err)
	}

	args := append(append([]string{}, s.args...), path)
	cmd := exec.CommandContext(ctx, s.name, args...)
	cmd.Env = append(cmd.Environ(), "EMOGO_SHARE_MIME="+mimeType)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("share command failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
