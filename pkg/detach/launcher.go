package detach

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/harun/oracle/internal/observability"
	"github.com/harun/oracle/pkg/session"
	"github.com/rs/zerolog"
)

// ExecSessionFlag is the hidden flag that makes the binary run one stored
// session and exit.
const ExecSessionFlag = "--exec-session"

// HomeEnv carries the oracle home directory into the child.
const HomeEnv = "ORACLE_HOME_DIR"

// Recorder is the part of the session store the launcher writes to.
type Recorder interface {
	WritePID(id string, pid int) error
	Update(id string, p session.Patch) (*session.Record, error)
}

// Config configures a Launcher.
type Config struct {
	// Executable defaults to the running binary.
	Executable string
	// Args are placed before the exec-session flag.
	Args    []string
	HomeDir string
	// Env is appended to the launcher environment.
	Env []string
}

// Launcher spawns detached session runners.
type Launcher struct {
	cfg      Config
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewLauncher creates a launcher that records into recorder.
func NewLauncher(cfg Config, recorder Recorder, logger zerolog.Logger) (*Launcher, error) {
	if cfg.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable: %w", err)
		}
		cfg.Executable = exe
	}
	return &Launcher{
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With().Str("component", "detach").Logger(),
		now:      time.Now,
	}, nil
}

// LaunchDetached starts the runner for id in a new session and returns as
// soon as the child has started. It does not wait for the child.
func (l *Launcher) LaunchDetached(ctx context.Context, id string) error {
	if err := session.ValidateID(id); err != nil {
		return err
	}

	args := append(append([]string{}, l.cfg.Args...), ExecSessionFlag, id)
	cmd := exec.Command(l.cfg.Executable, args...)
	cmd.Env = append(os.Environ(), l.cfg.Env...)
	if l.cfg.HomeDir != "" {
		cmd.Env = append(cmd.Env, HomeEnv+"="+l.cfg.HomeDir)
	}
	// nil stdio attaches the null device so the child never holds the
	// launcher terminal.
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	setDetached(cmd)

	if err := ctx.Err(); err != nil {
		return l.fail(id, err)
	}
	if err := cmd.Start(); err != nil {
		return l.fail(id, err)
	}

	pid := cmd.Process.Pid
	if err := l.recorder.WritePID(id, pid); err != nil {
		l.logger.Warn().Str("session_id", id).Err(err).Msg("Failed to record runner pid")
	}
	if err := cmd.Process.Release(); err != nil {
		l.logger.Debug().Str("session_id", id).Err(err).Msg("Failed to release runner process")
	}

	observability.RecordDetachLaunch(true)
	l.logger.Info().Str("session_id", id).Int("pid", pid).Msg("Detached runner started")
	return nil
}

func (l *Launcher) fail(id string, cause error) error {
	observability.RecordDetachLaunch(false)
	err := fmt.Errorf("failed to launch detached session: %w", cause)

	status := session.StatusError
	completed := l.now().UTC()
	msg := err.Error()
	if _, uerr := l.recorder.Update(id, session.Patch{
		Status:       &status,
		CompletedAt:  &completed,
		ErrorMessage: &msg,
	}); uerr != nil {
		l.logger.Error().Str("session_id", id).Err(uerr).Msg("Failed to record launch failure")
	}
	l.logger.Error().Str("session_id", id).Err(cause).Msg("Detached launch failed")
	return err
}

// IsAlive reports whether the process pid still exists.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return processAlive(pid)
}
