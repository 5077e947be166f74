package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harun/oracle/internal/observability"
	"github.com/harun/oracle/pkg/dispatch"
	"github.com/harun/oracle/pkg/provider"
	"github.com/harun/oracle/pkg/session"
	"github.com/rs/zerolog"
)

// ErrAlreadyStarted is returned when a session has left pending.
var ErrAlreadyStarted = errors.New("session already started")

// Config holds runner settings.
type Config struct {
	Version string
	// MaxInputBytes is the per-file limit when the run does not set one.
	MaxInputBytes   int64
	MetricsTextfile string
}

// Runner executes stored sessions. Foreground runs and detached children
// use the same Run path.
type Runner struct {
	store      *session.Store
	dispatcher *dispatch.Dispatcher
	cfg        Config
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a runner.
func New(store *session.Store, dispatcher *dispatch.Dispatcher, cfg Config, logger zerolog.Logger) *Runner {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Runner{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger.With().Str("component", "runner").Logger(),
		now:        time.Now,
	}
}

// Run drives session id from pending to a terminal status. Inputs come only
// from the stored record. The transcript is also copied to echo when it is
// non-nil and the run is not silent.
//
// A single-model failure is recorded and returned. A multi-model run
// returns nil once its outcome is recorded, even when every model failed.
func (r *Runner) Run(ctx context.Context, id string, echo io.Writer) (*session.Record, error) {
	rec, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != session.StatusPending {
		return rec, fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, id, rec.Status)
	}

	opts := rec.Options
	if snapshot, err := r.store.ReadRequest(id); err == nil {
		opts = *snapshot
	}

	runID := uuid.NewString()
	logger := r.logger.With().Str("session_id", id).Str("run_id", runID).Str("model", opts.Model).Logger()

	start := r.now()
	startedAt := start.UTC()
	running := session.StatusRunning
	if _, err := r.store.Update(id, session.Patch{Status: &running, StartedAt: &startedAt, RunID: &runID}); err != nil {
		return nil, err
	}
	defer func() {
		observability.RecordRunnerDuration(r.now().Sub(start))
		if err := observability.WriteTextfile(r.cfg.MetricsTextfile); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}()

	logw, err := r.store.OpenLog(id)
	if err != nil {
		return r.fail(id, start, nil, err, logger)
	}
	defer func() {
		if err := logw.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close session log")
		}
	}()

	var out io.Writer = logw
	if echo != nil && !opts.Silent {
		out = io.MultiWriter(logw, echo)
	}

	if opts.Mode == session.ModeBrowser {
		return r.fail(id, start, out, provider.ErrBrowserUnavailable, logger)
	}
	if err := session.ValidateOptions(opts); err != nil {
		return r.fail(id, start, out, err, logger)
	}

	maxInput := opts.MaxInput
	if maxInput <= 0 {
		maxInput = r.cfg.MaxInputBytes
	}
	attachments, err := LoadAttachments(rec.Cwd, opts.Files, maxInput)
	if err != nil {
		return r.fail(id, start, out, err, logger)
	}

	models := opts.RequestedModels()
	fmt.Fprintf(out, "Oracle (%s) %s · %d files\n", r.cfg.Version, strings.Join(models, ", "), len(attachments))
	fmt.Fprintf(out, "Reattach via: oracle session %s\n", id)
	if opts.FilesReport {
		writeFilesReport(out, attachments)
	}

	in := dispatch.Input{
		Prompt:          opts.Prompt,
		System:          opts.System,
		Attachments:     attachments,
		MaxOutputTokens: opts.MaxOutput,
		Search:          opts.Search,
	}

	logger.Info().Int("models", len(models)).Int("files", len(attachments)).Msg("Session running")

	if !opts.IsMultiModel() {
		outcome, err := r.dispatcher.RunSingle(ctx, opts.Model, in, out)
		if err != nil {
			return r.fail(id, start, nil, err, logger)
		}
		return r.complete(id, start, session.Patch{Usage: outcome.Usage}, logger)
	}

	summary, err := r.dispatcher.RunMulti(ctx, models, in, out)
	if err != nil {
		return r.fail(id, start, out, err, logger)
	}
	patch := session.Patch{Models: summary.ModelRuns()}
	if summary.AllFailed() {
		msg := allFailedMessage(summary)
		fmt.Fprintf(out, "ERROR: %s\n", msg)
		status := session.StatusError
		completed := r.now().UTC()
		elapsed := r.now().Sub(start).Milliseconds()
		patch.Status = &status
		patch.CompletedAt = &completed
		patch.ElapsedMs = &elapsed
		patch.ErrorMessage = &msg
		final, err := r.store.Update(id, patch)
		if err != nil {
			return nil, err
		}
		logger.Warn().Int("rejected", len(summary.Rejected)).Msg("Every model failed")
		return final, nil
	}
	usage := summary.Usage()
	patch.Usage = &usage
	return r.complete(id, start, patch, logger)
}

func (r *Runner) complete(id string, start time.Time, patch session.Patch, logger zerolog.Logger) (*session.Record, error) {
	status := session.StatusCompleted
	completed := r.now().UTC()
	elapsed := r.now().Sub(start).Milliseconds()
	patch.Status = &status
	patch.CompletedAt = &completed
	patch.ElapsedMs = &elapsed

	final, err := r.store.Update(id, patch)
	if err != nil {
		return nil, err
	}
	logger.Info().Int64("elapsed_ms", elapsed).Msg("Session completed")
	return final, nil
}

// fail records err on the session and returns it. The error line goes to
// out unless out is nil because the caller already wrote it.
func (r *Runner) fail(id string, start time.Time, out io.Writer, cause error, logger zerolog.Logger) (*session.Record, error) {
	if out != nil {
		fmt.Fprintf(out, "ERROR: %v\n", cause)
	}

	status := session.StatusError
	completed := r.now().UTC()
	elapsed := r.now().Sub(start).Milliseconds()
	msg := cause.Error()
	final, err := r.store.Update(id, session.Patch{
		Status:       &status,
		CompletedAt:  &completed,
		ElapsedMs:    &elapsed,
		ErrorMessage: &msg,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to record session error")
	}
	logger.Error().Err(cause).Msg("Session failed")
	return final, cause
}

func allFailedMessage(s dispatch.Summary) string {
	parts := make([]string, 0, len(s.Rejected))
	for _, o := range s.Rejected {
		parts = append(parts, fmt.Sprintf("%s: %s", o.Model, o.ErrorReason))
	}
	return fmt.Sprintf("all %d models failed (%s)", len(s.Rejected), strings.Join(parts, ", "))
}

func writeFilesReport(w io.Writer, attachments []provider.Attachment) {
	if len(attachments) == 0 {
		return
	}
	fmt.Fprintln(w, "Files:")
	for _, a := range attachments {
		fmt.Fprintf(w, "  %s (%d bytes)\n", a.Path, len(a.Content))
	}
}
