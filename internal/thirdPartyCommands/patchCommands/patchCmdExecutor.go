package patchcommands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type PatchCommandService interface {
	Apply(ctx context.Context, dir string, diff []byte) error
}

type PatchCommandExecutor struct{}

func NewPatchCommandExecutor() *PatchCommandExecutor {
	return &PatchCommandExecutor{}
}

// Apply runs the unified diff against the package directory. --forward makes
// an already applied patch fail instead of being reversed.
func (p *PatchCommandExecutor) Apply(ctx context.Context, dir string, diff []byte) error {
	cmd := exec.CommandContext(ctx, "patch", "-p1", "--forward", "--batch", "--silent")
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdin = bytes.NewReader(diff)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("timeout applying patch in %s", dir)
		}

		return fmt.Errorf("patch failed in %s: %w: %s", dir, err, strings.TrimSpace(string(output)))
	}

	return nil
}
