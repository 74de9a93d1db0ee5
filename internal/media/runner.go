package media

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// Runner executes an external command and returns its captured output.
// Tests replace it to avoid invoking real binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. Run returns only after the process has exited
// and its output pipes are closed.
type ExecRunner struct {
	Logger *zap.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	logger = utils.OrNop(logger)
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)
	if err != nil {
		logger.Warn("exec failed",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Error(err),
			zap.String("stderr", utils.Truncate(errb.String(), 8<<10)),
		)
	} else {
		logger.Debug("exec ok",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.Int("stdout_bytes", out.Len()),
			zap.Int("stderr_bytes", errb.Len()),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}
