package session

import (
	"time"
)

// Status is the lifecycle state of a session record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal reports whether no further transitions can happen from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Mode selects the execution engine for a run.
type Mode string

const (
	ModeAPI     Mode = "api"
	ModeBrowser Mode = "browser"
)

// RunOptions is the frozen input of a run. It is written once at creation
// (session.json and request.json) and never mutated afterwards.
type RunOptions struct {
	Prompt      string   `json:"prompt"`
	Files       []string `json:"file"`
	Model       string   `json:"model"`
	Models      []string `json:"models,omitempty"`
	MaxInput    int64    `json:"maxInput,omitempty"`  // per-file byte limit
	MaxOutput   int      `json:"maxOutput,omitempty"` // output token limit
	System      string   `json:"system,omitempty"`
	Search      bool     `json:"search"`
	Silent      bool     `json:"silent,omitempty"`
	FilesReport bool     `json:"filesReport,omitempty"`
	Mode        Mode     `json:"mode,omitempty"`
}

// RequestedModels returns the model list of the run in input order. Single
// model runs yield a one-element slice.
func (o RunOptions) RequestedModels() []string {
	if len(o.Models) > 0 {
		return o.Models
	}
	if o.Model == "" {
		return nil
	}
	return []string{o.Model}
}

// IsMultiModel reports whether the run fans out to more than one model.
func (o RunOptions) IsMultiModel() bool {
	return len(o.Models) > 1
}

// Usage is the token and cost accounting of a finished run.
type Usage struct {
	InputTokens     int     `json:"inputTokens"`
	OutputTokens    int     `json:"outputTokens"`
	ReasoningTokens int     `json:"reasoningTokens"`
	TotalTokens     int     `json:"totalTokens"`
	CostUSD         float64 `json:"costUsd,omitempty"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningTokens += other.ReasoningTokens
	u.TotalTokens += other.TotalTokens
	u.CostUSD += other.CostUSD
}

// ModelRun is the per-model slot of a multi-model session.
type ModelRun struct {
	Model       string `json:"model"`
	Status      string `json:"status"` // pending, fulfilled, rejected
	Usage       *Usage `json:"usage,omitempty"`
	ErrorReason string `json:"errorReason,omitempty"`
}

// Record is the durable unit of work persisted as session.json.
type Record struct {
	ID            string     `json:"id"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	PromptPreview string     `json:"promptPreview"`
	Model         string     `json:"model"`
	Models        []ModelRun `json:"models,omitempty"`
	Mode          Mode       `json:"mode,omitempty"`
	Cwd           string     `json:"cwd"`
	RunID         string     `json:"runId,omitempty"`
	Options       RunOptions `json:"options"`
	Usage         *Usage     `json:"usage,omitempty"`
	ElapsedMs     int64      `json:"elapsedMs,omitempty"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched by Store.Update.
type Patch struct {
	Status       *Status
	StartedAt    *time.Time
	CompletedAt  *time.Time
	RunID        *string
	Models       []ModelRun
	Usage        *Usage
	ElapsedMs    *int64
	ErrorMessage *string
}

func (p Patch) apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		r.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		r.CompletedAt = &t
	}
	if p.RunID != nil {
		r.RunID = *p.RunID
	}
	if p.Models != nil {
		r.Models = append([]ModelRun(nil), p.Models...)
	}
	if p.Usage != nil {
		u := *p.Usage
		r.Usage = &u
	}
	if p.ElapsedMs != nil {
		r.ElapsedMs = *p.ElapsedMs
	}
	if p.ErrorMessage != nil {
		r.ErrorMessage = *p.ErrorMessage
	}
}

// StatusPatch is shorthand for a patch that only moves the status.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}
