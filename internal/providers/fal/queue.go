package fal

import (
	"context"
	"encoding/json"
	"time"
)

const (
	maxPollAttempts      = 120
	maxConsecutiveErrors = 5

	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
	statusError     = "ERROR"
)

// pollState tracks where a queued execution is in its lifecycle.
type pollState int

const (
	stateSubmitting pollState = iota
	statePolling
	stateCompleted
	stateFailed
	stateTimedOut
)

// pollRun holds the mutable state of one queued execution. The counters are
// explicit fields so the schedule and ceilings can be tested in isolation.
type pollRun struct {
	state             pollState
	attempts          int
	consecutiveErrors int
	handle            *QueueHandle
}

// Poller drives the submit→poll→fetch-result protocol for queue-based
// operations. One Run call owns one queued request from submission to a
// terminal outcome.
type Poller struct {
	client *Client
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller over the given client.
func NewPoller(client *Client) *Poller {
	return &Poller{client: client, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pollDelay returns the wait before the given 1-indexed attempt. The
// schedule ramps from eager to patient: 2s for attempts 1-6, 3s through 20,
// 5s beyond that (~10 minutes worst case across 120 attempts).
func pollDelay(attempt int) time.Duration {
	switch {
	case attempt <= 6:
		return 2 * time.Second
	case attempt <= 20:
		return 3 * time.Second
	default:
		return 5 * time.Second
	}
}

// Run submits body to the queued model at path and polls until the request
// reaches a terminal outcome, returning the raw result payload.
func (p *Poller) Run(ctx context.Context, operation, path string, body any) (json.RawMessage, error) {
	run := &pollRun{state: stateSubmitting}

	handle, err := p.client.Submit(ctx, path, body)
	if err != nil {
		run.state = stateFailed
		return nil, err
	}
	run.handle = handle
	run.state = statePolling

	for {
		if run.attempts >= maxPollAttempts {
			run.state = stateTimedOut
			return nil, &PollTimeoutError{Operation: operation, Attempts: run.attempts}
		}
		run.attempts++
		if err := p.sleep(ctx, pollDelay(run.attempts)); err != nil {
			run.state = stateFailed
			return nil, err
		}

		status, err := p.client.PollStatus(ctx, run.handle.StatusURL)
		if err != nil {
			run.consecutiveErrors++
			if run.consecutiveErrors >= maxConsecutiveErrors {
				run.state = stateFailed
				return nil, &PollExhaustedError{Operation: operation, Errors: run.consecutiveErrors}
			}
			continue
		}
		run.consecutiveErrors = 0

		switch status.Status {
		case statusCompleted:
			result, err := p.fetchResult(ctx, run, status)
			if err != nil {
				run.state = stateFailed
				return nil, err
			}
			run.state = stateCompleted
			return result, nil
		case statusFailed, statusError:
			run.state = stateFailed
			return nil, &ProviderJobFailedError{Operation: operation, Detail: status.FailureDetail()}
		default:
			// IN_QUEUE, IN_PROGRESS and anything unrecognized: keep polling.
		}
	}
}

func (p *Poller) fetchResult(ctx context.Context, run *pollRun, status *QueueStatus) (json.RawMessage, error) {
	responseURL := status.ResponseURL
	if responseURL == "" {
		responseURL = run.handle.ResponseURL
	}
	raw, err := p.client.FetchResult(ctx, responseURL)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
