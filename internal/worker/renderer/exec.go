// Package renderer runs the external render engine and the thumbnail
// extractor as subprocesses.
package renderer

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"reelstudio/internal/pkg/errors"
)

// StderrTailBytes is how much of a failing command's stderr is kept.
const StderrTailBytes = 4 << 10

// waitDelay bounds how long Run waits for output pipes after the process
// was killed, in case a grandchild still holds them.
const waitDelay = 2 * time.Second

// Command is one subprocess invocation.
type Command struct {
	Bin     string
	Args    []string
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Bin + " " + strings.Join(c.Args, " "))
}

// Runner executes commands. Exec is the real implementation.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

type Exec struct{}

// Run starts cmd, waits for it and reports a non-zero exit together with
// the tail of its stderr. A Bin with spaces ("npx remotion") is split into
// program and leading arguments.
func (Exec) Run(ctx context.Context, c Command) error {
	fields := strings.Fields(c.Bin)
	if len(fields) == 0 {
		return errors.ValidationField("bin", "command binary is empty")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(fields[1:len(fields):len(fields)], c.Args...)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	stderr := &tailBuffer{max: StderrTailBytes}
	cmd.Stderr = stderr
	cmd.Stdout = stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.WrapWithCode(err, errors.CodeTimeout, "renderer.exec",
			fmt.Sprintf("%s timed out after %s: %s", fields[0], c.Timeout, stderr.String()))
	}
	return errors.Wrap(err, "renderer.exec", fmt.Sprintf("%s failed: %s", fields[0], stderr.String()))
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	max int
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= t.max {
		t.buf.Reset()
		t.buf.Write(p[len(p)-t.max:])
		return n, nil
	}
	if over := t.buf.Len() + len(p) - t.max; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(t.buf.String())
}
