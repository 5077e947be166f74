package provider

import (
	"context"
	"strings"

	"github.com/harun/oracle/pkg/session"
)

// DefaultSystemPrompt is sent when a run does not carry its own system prompt.
const DefaultSystemPrompt = "You are Oracle, a focused one-shot problem solver. " +
	"Emphasize direct answers, cite any files referenced, and clearly note when the search tool was used."

// Provider is a model vendor capability: one request in, one answer out.
type Provider interface {
	// Submit sends the request and blocks until the model answers or fails.
	Submit(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider family name.
	Name() string
}

// Attachment is a file already read and validated by the caller.
type Attachment struct {
	Path    string // relative to the session cwd when possible
	Content string
}

// Request is the provider-neutral shape of one model call.
type Request struct {
	Model           string // canonical table name, used for logs and errors
	APIModel        string // identifier sent on the wire
	Prompt          string
	System          string
	Attachments     []Attachment
	MaxOutputTokens int
	Search          bool
	ReasoningEffort string
}

// Response is the normalized answer of a model call.
type Response struct {
	AnswerText string
	Usage      session.Usage
}

// UserMessage renders the prompt followed by every attachment as a fenced
// markdown section.
func (r Request) UserMessage() string {
	if len(r.Attachments) == 0 {
		return r.Prompt
	}

	var b strings.Builder
	b.WriteString(r.Prompt)
	for _, a := range r.Attachments {
		b.WriteString("\n\n### File: ")
		b.WriteString(a.Path)
		b.WriteString("\n```\n")
		b.WriteString(a.Content)
		if !strings.HasSuffix(a.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```")
	}
	return b.String()
}
