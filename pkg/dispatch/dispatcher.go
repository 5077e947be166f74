package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/harun/oracle/internal/observability"
	"github.com/harun/oracle/pkg/provider"
	"github.com/harun/oracle/pkg/session"
	"github.com/rs/zerolog"
)

// Dispatcher executes model calls through a Resolver.
type Dispatcher struct {
	resolver Resolver
	logger   zerolog.Logger
}

// New creates a dispatcher.
func New(resolver Resolver, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		logger:   logger.With().Str("component", "dispatch").Logger(),
	}
}

// Call performs one model call and normalizes its result. It never returns
// an error; failures are reported through the Outcome.
func (d *Dispatcher) Call(ctx context.Context, model string, in Input) (out Outcome) {
	start := time.Now()
	out.Model = model
	providerName := "unknown"

	defer func() {
		if r := recover(); r != nil {
			te := &provider.TransportError{
				Reason: provider.ReasonUnknown,
				Model:  model,
				Msg:    fmt.Sprintf("%s call panicked: %v", model, r),
			}
			out = rejected(model, te)
		}
		out.Elapsed = time.Since(start)
		observability.RecordProviderCall(providerName, out.Elapsed, out.Fulfilled())
	}()

	p, info, err := d.resolver.For(model)
	if err != nil {
		return rejected(model, provider.ToTransportError(err, model))
	}
	providerName = p.Name()

	logger := d.logger.With().Str("model", info.Name).Str("provider", providerName).Logger()
	logger.Debug().Int("attachments", len(in.Attachments)).Msg("Submitting request")

	system := in.System
	if system == "" {
		system = provider.DefaultSystemPrompt
	}
	resp, err := p.Submit(ctx, provider.Request{
		Model:           info.Name,
		APIModel:        info.APIModel,
		Prompt:          in.Prompt,
		System:          system,
		Attachments:     in.Attachments,
		MaxOutputTokens: in.MaxOutputTokens,
		Search:          in.Search,
		ReasoningEffort: info.ReasoningEffort,
	})
	if err != nil {
		te := provider.ToTransportError(err, info.Name)
		logger.Warn().Str("reason", string(te.Reason)).Err(err).Msg("Model call failed")
		return rejected(model, te)
	}

	usage := resp.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	if cost, ok := info.Cost(usage); ok {
		usage.CostUSD = cost
	}
	observability.RecordTokens(info.Name, usage.InputTokens, usage.OutputTokens, usage.ReasoningTokens)
	logger.Debug().Int("input_tokens", usage.InputTokens).Int("output_tokens", usage.OutputTokens).Msg("Model call completed")

	return Outcome{
		Model:      model,
		Status:     StatusFulfilled,
		AnswerText: resp.AnswerText,
		Usage:      &usage,
	}
}

// RunSingle performs one call and writes its answer and metrics line to w.
// On failure the error line is written and the transport error returned.
func (d *Dispatcher) RunSingle(ctx context.Context, model string, in Input, w io.Writer) (Outcome, error) {
	out := d.Call(ctx, model, in)
	writeOutcome(w, out, false)
	if !out.Fulfilled() {
		observability.RecordDispatch("single", "error")
		return out, out.Err
	}
	observability.RecordDispatch("single", "completed")
	return out, nil
}

// RunMulti dispatches every model concurrently and waits for all of them to
// settle. Each answer is written to w in input order after the last call
// returns. The returned error is non-nil only for an empty model list.
func (d *Dispatcher) RunMulti(ctx context.Context, models []string, in Input, w io.Writer) (Summary, error) {
	if len(models) == 0 {
		return Summary{}, ErrNoModels
	}

	d.logger.Info().Int("num_models", len(models)).Msg("Starting multi-model dispatch")
	start := time.Now()

	outcomes := make([]Outcome, len(models))
	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(index int, model string) {
			defer wg.Done()
			outcomes[index] = d.Call(ctx, model, in)
		}(i, model)
	}
	wg.Wait()

	summary := Summary{Outcomes: outcomes}
	var buf bytes.Buffer
	for _, out := range outcomes {
		if out.Fulfilled() {
			summary.Fulfilled = append(summary.Fulfilled, out)
		} else {
			summary.Rejected = append(summary.Rejected, out)
		}
		writeOutcome(&buf, out, true)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to write dispatch transcript")
	}

	outcome := "completed"
	if summary.AllFailed() {
		outcome = "error"
	}
	observability.RecordDispatch("multi", outcome)
	d.logger.Info().
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Int("fulfilled", len(summary.Fulfilled)).
		Int("rejected", len(summary.Rejected)).
		Msg("Multi-model dispatch settled")

	return summary, nil
}

func rejected(model string, te *provider.TransportError) Outcome {
	return Outcome{
		Model:       model,
		Status:      StatusRejected,
		ErrorReason: string(te.Reason),
		Err:         te,
	}
}

// writeOutcome renders one outcome as transcript lines. Multi-model sections
// are headed by the model name.
func writeOutcome(w io.Writer, out Outcome, withHeader bool) {
	if withHeader {
		fmt.Fprintf(w, "\n[%s]\n", out.Model)
	}
	if !out.Fulfilled() {
		fmt.Fprintf(w, "ERROR: %v\n", out.Err)
		return
	}

	answer := out.AnswerText
	if answer != "" && answer[len(answer)-1] != '\n' {
		answer += "\n"
	}
	fmt.Fprint(w, answer)
	fmt.Fprintf(w, "Finished in %s (tok i/o/r/t: %s, %s)\n",
		session.FormatElapsed(out.Elapsed), out.Usage.Tokens(), session.FormatUSD(out.Usage.CostUSD))
}
