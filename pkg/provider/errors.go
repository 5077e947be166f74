package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// Reason classifies a provider transport failure.
type Reason string

const (
	ReasonModelUnavailable Reason = "model-unavailable"
	ReasonRateLimited      Reason = "rate-limited"
	ReasonAuth             Reason = "auth"
	ReasonTimeout          Reason = "timeout"
	ReasonAPIError         Reason = "api-error"
	ReasonUnknown          Reason = "unknown"
)

// ErrBrowserUnavailable is returned for runs in browser mode. Browser
// automation lives outside this binary.
var ErrBrowserUnavailable = errors.New("browser engine is not available in this build; rerun with --engine api")

// TransportError is a failed model call.
type TransportError struct {
	Reason Reason
	Model  string
	Status int
	Msg    string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed (%s): %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s request failed (%s)", e.Model, e.Reason)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ToTransportError classifies err from any SDK into a *TransportError.
// A nil err yields nil; an existing *TransportError is returned unchanged.
func ToTransportError(err error, model string) *TransportError {
	if err == nil {
		return nil
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Reason: ReasonTimeout, Model: model, Err: err,
			Msg: fmt.Sprintf("%s request timed out", model)}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Reason: ReasonTimeout, Model: model, Err: err,
			Msg: fmt.Sprintf("%s request timed out", model)}
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		if oaErr.Code == "model_not_found" {
			return modelUnavailable(model, oaErr.StatusCode, err)
		}
		return fromStatus(model, oaErr.StatusCode, err)
	}

	var anErr *anthropic.Error
	if errors.As(err, &anErr) {
		return fromStatus(model, anErr.StatusCode, err)
	}

	return &TransportError{Reason: ReasonUnknown, Model: model, Err: err}
}

func fromStatus(model string, status int, err error) *TransportError {
	switch {
	case status == http.StatusNotFound:
		return modelUnavailable(model, status, err)
	case status == http.StatusTooManyRequests:
		return &TransportError{Reason: ReasonRateLimited, Model: model, Status: status, Err: err,
			Msg: fmt.Sprintf("%s is rate limited; wait a moment and retry", model)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &TransportError{Reason: ReasonAuth, Model: model, Status: status, Err: err,
			Msg: fmt.Sprintf("%s rejected the API key (HTTP %d)", model, status)}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &TransportError{Reason: ReasonTimeout, Model: model, Status: status, Err: err,
			Msg: fmt.Sprintf("%s request timed out (HTTP %d)", model, status)}
	case status > 0:
		return &TransportError{Reason: ReasonAPIError, Model: model, Status: status, Err: err}
	default:
		return &TransportError{Reason: ReasonUnknown, Model: model, Err: err}
	}
}

func modelUnavailable(model string, status int, err error) *TransportError {
	return &TransportError{
		Reason: ReasonModelUnavailable,
		Model:  model,
		Status: status,
		Err:    err,
		Msg: fmt.Sprintf("model %s is not available to this API key; try --model %s or check your account access",
			model, DefaultModel),
	}
}

func missingKey(model string, family Family) *TransportError {
	return &TransportError{
		Reason: ReasonAuth,
		Model:  model,
		Msg:    fmt.Sprintf("no API key configured for %s (needed by %s)", family, model),
	}
}
