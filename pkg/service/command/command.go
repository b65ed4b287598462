package command

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/linecard/edgepack/pkg/failure"

	"github.com/rs/zerolog/log"
)

type Service struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

func FromPath(ctx context.Context) (Service, error) {
	shell, err := exec.LookPath("sh")
	if err != nil {
		return Service{}, err
	}

	return Service{Shell: shell, Stdout: os.Stdout, Stderr: os.Stderr}, nil
}

// Run executes command through the shell in dir with inherited stdio and
// blocks until it exits. No timeout is imposed.
func (s Service) Run(ctx context.Context, dir, command string) error {
	log.Info().Str("dir", dir).Str("command", command).Msg("running")

	cmd := exec.CommandContext(ctx, s.Shell, "-c", command)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	if err := cmd.Run(); err != nil {
		return failure.New(failure.ExternalToolFailure, command, err)
	}

	return nil
}
