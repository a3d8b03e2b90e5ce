package engine

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	"runner/internal/artifact"
	"runner/internal/infra"
	"runner/internal/providers/fal"
)

// provider is the surface the engine needs from the fal client. Narrowed to
// an interface so tests can count calls without a transport.
type provider interface {
	Run(ctx context.Context, path string, body any) (json.RawMessage, error)
	ResolveImage(ctx context.Context, operation string, raw json.RawMessage) ([]byte, error)
}

type queueRunner interface {
	Run(ctx context.Context, operation, path string, body any) (json.RawMessage, error)
}

// Engine maps a job's operation onto a provider call and turns the response
// into an output artifact. Every failure surfaces as one ExecutionError.
type Engine struct {
	client provider
	poller queueRunner
	logger *infra.Logger
}

// New wires an engine over a fal client.
func New(client *fal.Client, logger *infra.Logger) *Engine {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Engine{client: client, poller: fal.NewPoller(client), logger: logger}
}

// Run executes one operation. Payload validation happens before any network
// call; the returned artifact carries the detected (or forced) format.
func (e *Engine) Run(ctx context.Context, operation string, rawPayload json.RawMessage, inputURL string) (*artifact.Artifact, error) {
	desc, ok := Lookup(operation)
	if !ok {
		return nil, &ExecutionError{Operation: operation, Err: &UnknownOperationError{Operation: operation}}
	}
	payload, err := DecodePayload(rawPayload)
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Err: err}
	}
	if err := desc.Validate(payload, inputURL); err != nil {
		return nil, &ExecutionError{Operation: operation, Err: err}
	}

	body := desc.Build(payload, inputURL)
	var raw json.RawMessage
	if desc.Queued {
		raw, err = e.poller.Run(ctx, operation, desc.Path, body)
	} else {
		raw, err = e.client.Run(ctx, desc.Path, body)
	}
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Err: err}
	}

	data, err := e.client.ResolveImage(ctx, operation, raw)
	if err != nil {
		return nil, &ExecutionError{Operation: operation, Err: err}
	}

	art := artifact.New(data)
	if desc.ForcePNG {
		art.Format = artifact.FormatPNG
	}
	e.logger.Debug().
		Str("operation", operation).
		Str("path", desc.Path).
		Str("format", string(art.Format)).
		Int("bytes", len(art.Data)).
		Msg("engine: produced artifact")
	return art, nil
}
