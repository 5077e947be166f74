package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/harun/oracle/internal/config"
	"github.com/harun/oracle/pkg/detach"
	"github.com/harun/oracle/pkg/provider"
	"github.com/harun/oracle/pkg/runner"
	"github.com/harun/oracle/pkg/session"
	"github.com/spf13/cobra"
)

// ErrGeminiBrowser rejects an explicit browser engine for Gemini models.
var ErrGeminiBrowser = errors.New("Gemini is only supported via API. Use --engine api.")

// runOptions are the root command flags that start a session.
type runOptions struct {
	prompt      string
	files       []string
	model       string
	models      []string
	engine      string
	maxInput    int64
	maxOutput   int
	system      string
	silent      bool
	filesReport bool
	wait        bool
	noDetach    bool
	execSession string

	preview        string
	renderMarkdown bool
}

func (o *runOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.prompt, "prompt", "p", "", "user prompt to send to the model")
	f.StringSliceVarP(&o.files, "file", "f", nil, "files or directories to attach; repeat or comma-separate")
	f.StringVarP(&o.model, "model", "m", "", "model to target (default from config, gpt-5-pro)")
	f.StringSliceVar(&o.models, "models", nil, "comma-separated models to query concurrently")
	f.StringVar(&o.engine, "engine", "", "execution engine (api, browser)")
	f.Int64Var(&o.maxInput, "max-input", 0, "per-file byte limit for attachments")
	f.IntVar(&o.maxOutput, "max-output", 0, "output token limit")
	f.StringVar(&o.system, "system", "", "system prompt override")
	f.BoolVar(&o.silent, "silent", false, "do not echo the transcript to the terminal")
	f.BoolVar(&o.filesReport, "files-report", false, "list attached files and their sizes")
	f.BoolVar(&o.wait, "wait", true, "stay attached to a detached session until it finishes")
	f.BoolVar(&o.noDetach, "no-detach", false, "run the session inline in this process")
	f.StringVar(&o.preview, "preview", "", "preview the request without calling the API (summary, json, full)")
	f.Lookup("preview").NoOptDefVal = previewSummary
	f.BoolVar(&o.renderMarkdown, "render-markdown", false, "print the assembled markdown bundle for prompt and files and exit")
	f.StringVar(&o.execSession, "exec-session", "", "run a stored session and exit")
	_ = f.MarkHidden("exec-session")
}

func runRoot(cmd *cobra.Command, g *globalOptions, o *runOptions) error {
	a := g.app
	if o.execSession != "" {
		return execSession(cmd, a, o.execSession)
	}
	if o.renderMarkdown {
		return renderMarkdown(cmd, a, o)
	}
	if cmd.Flags().Changed("preview") {
		return preview(cmd, a, o)
	}

	if !cmd.Flags().Changed("prompt") {
		fmt.Fprintln(cmd.OutOrStdout(), "No prompt or subcommand supplied. See `oracle --help` for usage.")
		return cmd.Help()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	opts, err := resolveRunOptions(a.cfg, o)
	if err != nil {
		return err
	}
	if _, err := runner.LoadAttachments(cwd, opts.Files, opts.MaxInput); err != nil {
		return err
	}

	rec, err := a.store.Create(opts, cwd)
	if err != nil {
		return err
	}

	policy := detach.NewPolicy(o.noDetach || a.cfg.NoDetach || detach.EnvDisabled(os.Getenv(detach.DisableEnv)))
	models := opts.RequestedModels()
	if policy.ShouldDetach(models...) {
		return runDetached(cmd, g, o, rec)
	}
	for _, m := range models {
		if reason := policy.InlineReason(m); reason != "" {
			a.logger.Debug().Str("session_id", rec.ID).Str("model", m).Str("reason", reason).Msg("Running inline")
		}
	}
	return runInline(cmd, a, rec)
}

// resolveRunOptions merges flags over config into the stored options.
func resolveRunOptions(cfg *config.Config, o *runOptions) (session.RunOptions, error) {
	if strings.TrimSpace(o.prompt) == "" {
		return session.RunOptions{}, fmt.Errorf("%w when starting a new session", session.ErrPromptRequired)
	}

	model := o.model
	if model == "" {
		model = cfg.Model
	}
	model = provider.ResolveModel(model)

	var models []string
	for _, m := range o.models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, provider.ResolveModel(m))
		}
	}
	switch len(models) {
	case 0:
	case 1:
		model, models = models[0], nil
	default:
		model = models[0]
	}

	engine := o.engine
	if engine == "" {
		engine = cfg.Engine
	}
	if err := config.NewValidator().ValidateEngine(engine); err != nil {
		return session.RunOptions{}, err
	}
	for _, m := range append([]string{model}, models...) {
		if provider.FamilyForModel(m) != provider.FamilyGemini {
			continue
		}
		if o.engine == config.EngineBrowser {
			return session.RunOptions{}, ErrGeminiBrowser
		}
		engine = config.EngineAPI
	}

	prompt := o.prompt
	if strings.TrimSpace(cfg.PromptSuffix) != "" {
		prompt = strings.TrimSpace(prompt) + "\n" + cfg.PromptSuffix
	}

	maxInput := o.maxInput
	if maxInput <= 0 {
		maxInput = cfg.MaxInputBytes
	}

	return session.RunOptions{
		Prompt:      prompt,
		Files:       o.files,
		Model:       model,
		Models:      models,
		MaxInput:    maxInput,
		MaxOutput:   o.maxOutput,
		System:      o.system,
		Search:      cfg.SearchEnabled(),
		Silent:      o.silent,
		FilesReport: o.filesReport || cfg.FilesReport,
		Mode:        session.Mode(engine),
	}, nil
}

func runInline(cmd *cobra.Command, a *app, rec *session.Record) error {
	out := cmd.OutOrStdout()

	var stop func()
	if rec.Options.Silent {
		stop = func() {}
	} else {
		stop = startHeartbeat(cmd.Context(), cmd.ErrOrStderr(), a.cfg.Heartbeat())
	}
	final, err := a.runner.Run(cmd.Context(), rec.ID, out)
	stop()
	if err != nil {
		return err
	}

	if final.Status == session.StatusError {
		fmt.Fprintf(out, "Session %s failed: %s\n", rec.ID, final.ErrorMessage)
		return nil
	}
	fmt.Fprintf(out, "Session %s completed\n", rec.ID)
	return nil
}

func runDetached(cmd *cobra.Command, g *globalOptions, o *runOptions, rec *session.Record) error {
	a := g.app
	spawn := g.spawn
	spawn.Args = append(append([]string{}, spawn.Args...), childArgs(g)...)
	spawn.HomeDir = a.cfg.HomeDir
	launcher, err := detach.NewLauncher(spawn, a.store, a.logger)
	if err != nil {
		return err
	}
	if err := launcher.LaunchDetached(cmd.Context(), rec.ID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s started in the background.\n", rec.ID)
	fmt.Fprintf(out, "Reattach via: oracle session %s\n", rec.ID)

	wait := !a.cfg.Background
	if cmd.Flags().Changed("wait") {
		wait = o.wait
	}
	if !wait {
		return nil
	}
	final, err := attach(cmd, a, rec.ID)
	if err != nil {
		return err
	}
	return attachedRunError(final)
}

// attachedRunError gives a failed single-model run the same non-zero exit
// it gets inline. Multi-model runs where every model failed still exit
// cleanly.
func attachedRunError(rec *session.Record) error {
	if rec == nil || rec.Status != session.StatusError || rec.Options.IsMultiModel() {
		return nil
	}
	return fmt.Errorf("session %s failed: %s", rec.ID, rec.ErrorMessage)
}

// childArgs forwards the flags the detached runner needs to load the same
// configuration.
func childArgs(g *globalOptions) []string {
	var args []string
	if g.home != "" {
		args = append(args, "--home", g.home)
	}
	if g.configPath != "" {
		args = append(args, "--config", g.configPath)
	}
	if g.logLevel != "" {
		args = append(args, "--log-level", g.logLevel)
	}
	return args
}

// execSession is the detached child entry point. Run failures are already
// recorded on the session, so they are logged and swallowed.
func execSession(cmd *cobra.Command, a *app, id string) error {
	if _, err := a.store.Get(id); err != nil {
		return fmt.Errorf("no session found with ID %s: %w", id, err)
	}
	if _, err := a.runner.Run(cmd.Context(), id, nil); err != nil {
		a.logger.Error().Str("session_id", id).Err(err).Msg("Detached session failed")
	}
	return nil
}

// startHeartbeat prints a progress line every interval until stopped.
func startHeartbeat(ctx context.Context, w io.Writer, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	start := time.Now()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Fprintf(w, "Waiting for the model... %s elapsed\n", session.FormatElapsed(time.Since(start)))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
