// Package agent wraps an external text-generation collaborator behind a
// bounded retry/timeout policy with payload-shape learning.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docdraft/internal/trace"
)

const (
	// DefaultRetries is the attempt budget per logical call.
	DefaultRetries = 3
	// DefaultTimeout bounds each individual attempt.
	DefaultTimeout = 90 * time.Second
)

// Agent is the generation collaborator contract: a callable accepting one of
// the learned payload shapes and returning text or a text-bearing structure.
type Agent interface {
	Invoke(ctx context.Context, payload any) (any, error)
}

// Runtime normalizes collaborator invocation behavior: retry with linear
// backoff, per-attempt timeout with abandonment, shape learning, and
// response-to-text normalization. A Runtime is built once per run and must
// not be called concurrently.
type Runtime struct {
	agent  Agent
	shape  PayloadShape
	log    func(string)
	tracer *trace.Collector
}

// NewRuntime wraps a collaborator. log may be nil.
func NewRuntime(agent Agent, log func(string)) *Runtime {
	if log == nil {
		log = func(string) {}
	}
	return &Runtime{agent: agent, log: log}
}

// SetTracer attaches an optional trace collector.
func (r *Runtime) SetTracer(c *trace.Collector) { r.tracer = c }

// Shape returns the currently cached payload shape.
func (r *Runtime) Shape() PayloadShape { return r.shape }

type attemptResult struct {
	text  string
	shape PayloadShape
	err   error
}

// InvokeWithRetry performs one logical call: up to retries attempts, each
// bounded by timeout, with linear backoff between failures. The label tags
// log lines and trace events for correlation. On exhaustion the returned
// error embeds the last underlying failure.
func (r *Runtime) InvokeWithRetry(ctx context.Context, prompt string, retries int, timeout time.Duration, label string) (string, error) {
	if retries <= 0 {
		retries = DefaultRetries
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if label == "" {
		label = "agent-call"
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		r.log(fmt.Sprintf("%s: attempt %d/%d (timeout=%s) started.", label, attempt, retries, timeout))
		started := time.Now()
		result := r.invokeWithTimeout(ctx, prompt, timeout)
		elapsed := time.Since(started)

		if result.err == nil {
			r.shape = NextShape(r.shape, result.shape, true)
			r.log(fmt.Sprintf("%s: attempt %d/%d succeeded in %.1fs.", label, attempt, retries, elapsed.Seconds()))
			r.traceAttempt(label, attempt, "ok", result.shape, elapsed)
			return result.text, nil
		}

		lastErr = result.err
		r.log(fmt.Sprintf("%s: attempt %d/%d failed in %.1fs (%v)", label, attempt, retries, elapsed.Seconds(), result.err))
		r.traceAttempt(label, attempt, "error", result.shape, elapsed)
		if attempt < retries {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			r.log(fmt.Sprintf("%s: sleeping %.1fs before retry.", label, backoff.Seconds()))
			time.Sleep(backoff)
		}
	}
	return "", fmt.Errorf("agent invocation failed after %d attempts: %w", retries, lastErr)
}

// invokeWithTimeout runs a single attempt on a dedicated goroutine and
// abandons it when the deadline expires. The result channel is buffered so an
// abandoned attempt can never block; a slow underlying call may keep running
// in the background after the wrapper has moved on.
func (r *Runtime) invokeWithTimeout(ctx context.Context, prompt string, timeout time.Duration) attemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shape := r.shape
	results := make(chan attemptResult, 1)
	go func() {
		results <- r.invokeOnce(attemptCtx, prompt, shape)
	}()

	select {
	case result := <-results:
		return result
	case <-attemptCtx.Done():
		if attemptCtx.Err() == context.DeadlineExceeded {
			return attemptResult{err: fmt.Errorf("agent invocation timed out after %s", timeout)}
		}
		return attemptResult{err: attemptCtx.Err()}
	}
}

func (r *Runtime) invokeOnce(ctx context.Context, prompt string, shape PayloadShape) attemptResult {
	if shape != ShapeUnknown {
		response, err := r.agent.Invoke(ctx, BuildPayload(shape, prompt))
		if err != nil {
			return attemptResult{shape: shape, err: err}
		}
		return attemptResult{text: ResponseText(response), shape: shape}
	}

	var lastErr error
	for _, candidate := range probeOrder {
		r.log(fmt.Sprintf("trying payload format %s.", candidate))
		response, err := r.agent.Invoke(ctx, BuildPayload(candidate, prompt))
		if err == nil {
			return attemptResult{text: ResponseText(response), shape: candidate}
		}
		lastErr = err
		if ctx.Err() != nil {
			return attemptResult{err: ctx.Err()}
		}
	}
	return attemptResult{err: fmt.Errorf("agent invoke failed for all payload shapes: %w", lastErr)}
}

func (r *Runtime) traceAttempt(label string, attempt int, status string, shape PayloadShape, elapsed time.Duration) {
	if r.tracer == nil {
		return
	}
	sectionID := strings.TrimPrefix(label, "section:")
	if sectionID == label {
		sectionID = ""
	}
	payloadFormat := ""
	if shape != ShapeUnknown {
		payloadFormat = shape.String()
	}
	r.tracer.Log(trace.Event{
		EventType:     "agent_call",
		Component:     "runtime",
		Action:        "invoke",
		Status:        status,
		SectionID:     sectionID,
		Attempt:       attempt,
		PayloadFormat: payloadFormat,
		DurationMS:    elapsed.Milliseconds(),
	})
}
