package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harun/oracle/pkg/provider"
	"github.com/harun/oracle/pkg/runner"
	"github.com/harun/oracle/pkg/session"
	"github.com/spf13/cobra"
)

// Preview modes for --preview.
const (
	previewSummary = "summary"
	previewJSON    = "json"
	previewFull    = "full"
)

// charsPerToken is the rough ratio used to estimate input tokens without a
// tokenizer.
const charsPerToken = 4

type requestPreview struct {
	Models          []modelPreview `json:"models"`
	Engine          string         `json:"engine"`
	Search          bool           `json:"search"`
	MaxOutput       int            `json:"maxOutput,omitempty"`
	Files           []filePreview  `json:"files"`
	InputBytes      int            `json:"inputBytes"`
	EstimatedTokens int            `json:"estimatedInputTokens"`
	System          string         `json:"system,omitempty"`
	UserMessage     string         `json:"userMessage,omitempty"`
}

type modelPreview struct {
	Model         string   `json:"model"`
	APIModel      string   `json:"apiModel"`
	Provider      string   `json:"provider"`
	InputLimit    int      `json:"inputLimit,omitempty"`
	OverLimit     bool     `json:"overLimit,omitempty"`
	EstimatedCost *float64 `json:"estimatedInputCostUsd,omitempty"`
}

type filePreview struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func validatePreviewMode(mode string) error {
	switch mode {
	case previewSummary, previewJSON, previewFull:
		return nil
	default:
		return fmt.Errorf("invalid preview mode %q (expected summary, json or full)", mode)
	}
}

// assembleRequest resolves flags and attachments into the request a run
// would send, without creating a session.
func assembleRequest(a *app, o *runOptions, flag string) (session.RunOptions, provider.Request, error) {
	if strings.TrimSpace(o.prompt) == "" {
		return session.RunOptions{}, provider.Request{}, fmt.Errorf("%w when using --%s", session.ErrPromptRequired, flag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return session.RunOptions{}, provider.Request{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	opts, err := resolveRunOptions(a.cfg, o)
	if err != nil {
		return session.RunOptions{}, provider.Request{}, err
	}
	attachments, err := runner.LoadAttachments(cwd, opts.Files, opts.MaxInput)
	if err != nil {
		return session.RunOptions{}, provider.Request{}, err
	}

	system := opts.System
	if system == "" {
		system = provider.DefaultSystemPrompt
	}
	return opts, provider.Request{
		Prompt:          opts.Prompt,
		System:          system,
		Attachments:     attachments,
		MaxOutputTokens: opts.MaxOutput,
		Search:          opts.Search,
	}, nil
}

// renderMarkdown prints the user message bundle of prompt and files.
func renderMarkdown(cmd *cobra.Command, a *app, o *runOptions) error {
	_, req, err := assembleRequest(a, o, "render-markdown")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), req.UserMessage())
	return nil
}

// preview describes the request a run would send without calling any
// provider or touching the session store.
func preview(cmd *cobra.Command, a *app, o *runOptions) error {
	if err := validatePreviewMode(o.preview); err != nil {
		return err
	}
	opts, req, err := assembleRequest(a, o, "preview")
	if err != nil {
		return err
	}

	p := buildPreview(opts, req)
	a.logger.Debug().
		Str("mode", o.preview).
		Int("models", len(p.Models)).
		Int("files", len(p.Files)).
		Int("estimated_tokens", p.EstimatedTokens).
		Msg("Previewing request")

	out := cmd.OutOrStdout()
	if o.preview == previewJSON {
		p.System = req.System
		p.UserMessage = req.UserMessage()
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode preview: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	writePreviewSummary(out, p)
	if o.preview == previewFull {
		fmt.Fprintf(out, "\nSystem prompt:\n%s\n", req.System)
		fmt.Fprintf(out, "\nUser message:\n%s\n", req.UserMessage())
	}
	return nil
}

func buildPreview(opts session.RunOptions, req provider.Request) requestPreview {
	message := req.UserMessage()
	tokens := estimateTokens(req.System) + estimateTokens(message)

	p := requestPreview{
		Engine:          string(opts.Mode),
		Search:          opts.Search,
		MaxOutput:       opts.MaxOutput,
		Files:           make([]filePreview, 0, len(req.Attachments)),
		InputBytes:      len(req.System) + len(message),
		EstimatedTokens: tokens,
	}
	for _, att := range req.Attachments {
		p.Files = append(p.Files, filePreview{Path: att.Path, Bytes: len(att.Content)})
	}
	for _, model := range opts.RequestedModels() {
		info := provider.LookupModel(model)
		mp := modelPreview{
			Model:      info.Name,
			APIModel:   info.APIModel,
			Provider:   string(info.Family),
			InputLimit: info.InputLimit,
			OverLimit:  info.InputLimit > 0 && tokens > info.InputLimit,
		}
		if cost, ok := info.Cost(session.Usage{InputTokens: tokens}); ok {
			mp.EstimatedCost = &cost
		}
		p.Models = append(p.Models, mp)
	}
	return p
}

func writePreviewSummary(w io.Writer, p requestPreview) {
	names := make([]string, 0, len(p.Models))
	for _, m := range p.Models {
		names = append(names, m.Model)
	}
	search := "off"
	if p.Search {
		search = "on"
	}

	fmt.Fprintf(w, "Preview (oracle %s): no request sent\n", version)
	fmt.Fprintf(w, "Models: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "Engine: %s · search %s\n", p.Engine, search)

	total := 0
	for _, f := range p.Files {
		total += f.Bytes
	}
	fmt.Fprintf(w, "Files: %d (%d bytes)\n", len(p.Files), total)
	for _, f := range p.Files {
		fmt.Fprintf(w, "  %s (%d bytes)\n", f.Path, f.Bytes)
	}
	fmt.Fprintf(w, "Estimated input: ~%d tokens (%d bytes)\n", p.EstimatedTokens, p.InputBytes)

	for _, m := range p.Models {
		limit := "limit unknown"
		if m.InputLimit > 0 {
			limit = fmt.Sprintf("limit %d tokens", m.InputLimit)
		}
		cost := "n/a"
		if m.EstimatedCost != nil {
			cost = session.FormatUSD(*m.EstimatedCost)
		}
		line := fmt.Sprintf("  %s (%s, %s): %s, est. input cost %s", m.Model, m.Provider, m.APIModel, limit, cost)
		if m.OverLimit {
			line += " (over limit)"
		}
		fmt.Fprintln(w, line)
	}
}

func estimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}
