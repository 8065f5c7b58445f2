package coordinator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// Status is how a theme change request ended.
type Status string

const (
	// StatusApplied means the result became the active vibe.
	StatusApplied Status = "applied"
	// StatusFailed means the request was current but produced no usable vibe.
	StatusFailed Status = "failed"
	// StatusSuperseded means a later operation made the result irrelevant.
	StatusSuperseded Status = "superseded"
	// StatusSkipped means nothing was dispatched, e.g. for an empty description.
	StatusSkipped Status = "skipped"
)

// Outcome reports the end of one theme change request.
type Outcome struct {
	Token     uint64
	RequestID string
	Status    Status
	Vibe      vibe.Vibe
	Err       error
}

// RequestThemeChange starts generating a vibe from description and returns
// immediately. The channel yields exactly one Outcome and is then closed.
// Failures never escape as errors to the caller; they are recorded in the
// request state and reported in the Outcome.
func (c *Coordinator) RequestThemeChange(ctx context.Context, description string) <-chan Outcome {
	out := make(chan Outcome, 1)
	ctx, requestID := ports.EnsureRequestID(ctx)
	log := c.log.With("request_id", requestID)

	description = strings.TrimSpace(description)
	if description == "" {
		log.Debug("ignoring empty theme description")
		c.metrics.IncCounter(ctx, ports.MetricThemeRequests, map[string]string{"status": string(StatusSkipped)})
		out <- Outcome{RequestID: requestID, Status: StatusSkipped}
		close(out)
		return out
	}

	c.mu.Lock()
	token := c.invalidateLocked()
	var reqCtx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.state = RequestState{Loading: true}
	snap := c.commitLocked(CauseRequest)
	c.mu.Unlock()

	log.WithFields(map[string]any{"token": token, "description": description}).Info("theme change requested")
	c.deliver(snap)

	go func() {
		defer close(out)
		defer cancel()
		out <- c.run(reqCtx, token, requestID, description)
	}()

	return out
}

// ChangeTheme is the blocking form of RequestThemeChange.
func (c *Coordinator) ChangeTheme(ctx context.Context, description string) Outcome {
	return <-c.RequestThemeChange(ctx, description)
}

func (c *Coordinator) run(ctx context.Context, token uint64, requestID, description string) Outcome {
	log := c.log.WithFields(map[string]any{"request_id": requestID, "token": token})
	start := time.Now()

	candidate, err := c.generate(ctx, description)
	c.metrics.ObserveHistogram(ctx, ports.MetricThemeRequestDuration, time.Since(start).Seconds(), nil)

	outcome := Outcome{Token: token, RequestID: requestID}

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		log.Debug("discarding superseded theme result")
		outcome.Status = StatusSuperseded
		c.metrics.IncCounter(ctx, ports.MetricThemeRequests, map[string]string{"status": string(outcome.Status)})
		return outcome
	}

	c.cancel = nil
	var snap Snapshot
	if err != nil {
		c.state = RequestState{Error: err.Error()}
		snap = c.commitLocked(CauseFailure)
		outcome.Status = StatusFailed
		outcome.Err = err
	} else {
		c.active = candidate
		c.state = RequestState{}
		snap = c.commitLocked(CauseGeneration)
		outcome.Status = StatusApplied
		outcome.Vibe = candidate
	}
	c.mu.Unlock()

	if err != nil {
		log.WarnErr(err, "theme change failed")
	} else {
		c.persist(context.WithoutCancel(ctx), token, &candidate, candidate.Slug())
		log.With("theme", candidate.ThemeName).Info("theme applied")
		c.metrics.IncCounter(ctx, ports.MetricThemeChanges, map[string]string{"source": string(CauseGeneration)})
	}
	c.metrics.IncCounter(ctx, ports.MetricThemeRequests, map[string]string{"status": string(outcome.Status)})
	c.deliver(snap)
	return outcome
}

// generate calls the generator and validates what it returns.
func (c *Coordinator) generate(ctx context.Context, description string) (vibe.Vibe, error) {
	if c.gen == nil {
		return vibe.Vibe{}, chamerrors.NewGenerationError(description, "no generator configured", nil)
	}

	candidate, err := c.gen.Generate(ctx, description)
	if err != nil {
		reason := "generator failed"
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			reason = "timed out"
		case errors.Is(err, context.Canceled):
			reason = "cancelled"
		}
		return vibe.Vibe{}, chamerrors.NewGenerationError(description, reason, err)
	}

	if err := vibe.Validate(candidate); err != nil {
		return vibe.Vibe{}, chamerrors.NewGenerationError(description, "invalid theme", err)
	}
	return candidate, nil
}

// ApplyExtraction applies a vibe derived from a screenshot. It commits
// immediately like a preset, but an invalid extracted theme is recorded as a
// failure and leaves the active vibe untouched.
func (c *Coordinator) ApplyExtraction(ctx context.Context, extraction ports.Extraction) Outcome {
	ctx, requestID := ports.EnsureRequestID(ctx)
	log := c.log.With("request_id", requestID)
	validationErr := vibe.Validate(extraction.Vibe)

	c.mu.Lock()
	token := c.invalidateLocked()
	outcome := Outcome{Token: token, RequestID: requestID}
	var snap Snapshot
	if validationErr != nil {
		err := chamerrors.NewGenerationError(extraction.Description, "invalid extracted theme", validationErr)
		c.state = RequestState{Error: err.Error()}
		snap = c.commitLocked(CauseFailure)
		outcome.Status = StatusFailed
		outcome.Err = err
	} else {
		c.active = extraction.Vibe
		c.state = RequestState{}
		snap = c.commitLocked(CauseExtraction)
		outcome.Status = StatusApplied
		outcome.Vibe = extraction.Vibe
	}
	c.mu.Unlock()

	if outcome.Err != nil {
		log.WarnErr(outcome.Err, "extracted theme rejected")
	} else {
		c.persist(ctx, token, &extraction.Vibe, extraction.Vibe.Slug())
		log.WithFields(map[string]any{"theme": extraction.Vibe.ThemeName, "fallback": extraction.Fallback}).Info("extracted theme applied")
		c.metrics.IncCounter(ctx, ports.MetricThemeChanges, map[string]string{"source": string(CauseExtraction)})
	}
	c.deliver(snap)
	return outcome
}
