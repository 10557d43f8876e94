package nutrition

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/llm"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/logging"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/retry"
)

// Defaults applied by Options when a field is left zero.
const (
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultRetryBackoff    = 250 * time.Millisecond
)

// Recorder receives pipeline telemetry. *metrics.Metrics implements it.
type Recorder interface {
	ObserveUpstream(upstream, outcome string, d time.Duration)
	ObserveResolution(pipeline, source string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpstream(string, string, time.Duration) {}
func (nopRecorder) ObserveResolution(string, string)              {}

// Options carries the settings shared by every client in this package.
type Options struct {
	// Timeout bounds each upstream attempt.
	Timeout time.Duration
	// RetryBackoff is the pause before the single retry of idempotent calls.
	RetryBackoff time.Duration
	Logger       log.Interface
	Recorder     Recorder
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultUpstreamTimeout
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	o.Logger = logging.OrDefault(o.Logger)
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

// Upstream outcome labels.
const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeTimeout = "timeout"
	outcomeNoMatch = "no_match"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	default:
		return outcomeError
	}
}

// complete runs one model call under the per-attempt timeout, retrying once
// when retries is set and the failure is transient.
func (o Options) complete(ctx context.Context, p llm.LLMProvider, op string, req llm.ChatRequest, retries bool) (string, error) {
	policy := retry.Policy{Attempts: 1}
	if retries {
		policy = retry.Once(o.RetryBackoff)
	}

	var text string
	start := time.Now()
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.Timeout)
		defer cancel()

		resp, err := p.ChatCompletion(callCtx, req)
		if err != nil {
			if !llm.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		if strings.TrimSpace(resp.Content) == "" {
			return llm.ErrEmptyResponse
		}
		text = resp.Content
		return nil
	})
	o.Recorder.ObserveUpstream("llm:"+p.ModelInfo().Provider, outcomeOf(err), time.Since(start))
	if err != nil {
		return "", NewError(KindUpstreamUnavailable, op, err)
	}
	return text, nil
}

// logFailure logs a degraded upstream result with its kind and op.
func (o Options) logFailure(err error, fields log.Fields) {
	if fields == nil {
		fields = log.Fields{}
	}
	fields["kind"] = KindOf(err).String()
	var e *Error
	if errors.As(err, &e) {
		fields["op"] = e.Op
	}
	o.Logger.WithFields(fields).WithError(err).Warn("upstream degraded")
}
