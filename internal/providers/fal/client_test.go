package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type responseStub struct {
	status int
	body   []byte
	err    error
}

// stubTransport routes requests by URL (GET) or path (POST), capturing the
// last POST body. Queued stubs for the same key are consumed in order.
type stubTransport struct {
	responses map[string][]responseStub
	lastBody  []byte
	posts     int
	gets      map[string]int
}

func newStubTransport() *stubTransport {
	return &stubTransport{responses: map[string][]responseStub{}, gets: map[string]int{}}
}

func (s *stubTransport) stub(key string, stub responseStub) {
	s.responses[key] = append(s.responses[key], stub)
}

func (s *stubTransport) stubJSON(key string, payload any) {
	body, _ := json.Marshal(payload)
	s.stub(key, responseStub{status: http.StatusOK, body: body})
}

func (s *stubTransport) stubBinary(key string, data []byte) {
	s.stub(key, responseStub{status: http.StatusOK, body: data})
}

func (s *stubTransport) take(key string) (responseStub, bool) {
	queue := s.responses[key]
	if len(queue) == 0 {
		return responseStub{}, false
	}
	next := queue[0]
	if len(queue) > 1 {
		s.responses[key] = queue[1:]
	}
	return next, true
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		s.lastBody = body
		s.posts++
		if stub, ok := s.take(req.URL.Path); ok {
			return stub.toResponse()
		}
	}
	if req.Method == http.MethodGet {
		s.gets[req.URL.String()]++
		if stub, ok := s.take(req.URL.String()); ok {
			return stub.toResponse()
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (s responseStub) toResponse() (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
		Header:     http.Header{},
	}, nil
}

func newTestClient(t *testing.T, transport *stubTransport) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      "https://fal.test",
		QueueBaseURL: "https://queue.fal.test",
		HTTPClient:   &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestRunSendsAuthAndBody(t *testing.T) {
	transport := newStubTransport()
	transport.stubJSON("/fal-ai/nano-banana/edit", map[string]any{"images": []any{}})
	client := newTestClient(t, transport)

	_, err := client.Run(context.Background(), "fal-ai/nano-banana/edit", map[string]any{"prompt": "hat"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode captured body: %v", err)
	}
	if payload["prompt"] != "hat" {
		t.Fatalf("prompt = %v, want hat", payload["prompt"])
	}
}

func TestRunRequiresCredentials(t *testing.T) {
	client, err := NewClient(Options{HTTPClient: &http.Client{Transport: newStubTransport()}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Run(context.Background(), "fal-ai/x", nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestRunSurfacesProviderError(t *testing.T) {
	transport := newStubTransport()
	transport.stub("/fal-ai/x", responseStub{status: http.StatusUnprocessableEntity, body: []byte("bad prompt")})
	client := newTestClient(t, transport)

	_, err := client.Run(context.Background(), "fal-ai/x", map[string]any{})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if provErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", provErr.Status)
	}
	if !strings.Contains(provErr.Error(), "bad prompt") {
		t.Fatalf("detail missing from error: %v", provErr)
	}
}

func TestSubmitReturnsHandle(t *testing.T) {
	transport := newStubTransport()
	transport.stubJSON("/fal-ai/imagen4/preview", map[string]any{
		"request_id": "req-1",
		"status_url": "https://queue.fal.test/fal-ai/imagen4/preview/requests/req-1/status",
	})
	client := newTestClient(t, transport)

	handle, err := client.Submit(context.Background(), "fal-ai/imagen4/preview", map[string]any{"prompt": "fox"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle.RequestID != "req-1" {
		t.Fatalf("request id = %q", handle.RequestID)
	}
	if handle.ResponseURL != "https://queue.fal.test/fal-ai/imagen4/preview/requests/req-1" {
		t.Fatalf("response url = %q", handle.ResponseURL)
	}
}

func TestSubmitDerivesStatusURLFromRequestID(t *testing.T) {
	transport := newStubTransport()
	transport.stubJSON("/fal-ai/aura-sr", map[string]any{"request_id": "req-9"})
	client := newTestClient(t, transport)

	handle, err := client.Submit(context.Background(), "fal-ai/aura-sr", map[string]any{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := "https://queue.fal.test/fal-ai/aura-sr/requests/req-9/status"
	if handle.StatusURL != want {
		t.Fatalf("status url = %q, want %q", handle.StatusURL, want)
	}
}

func TestSubmitWithoutHandleIsProtocolError(t *testing.T) {
	transport := newStubTransport()
	transport.stubJSON("/fal-ai/imagen4/preview", map[string]any{"detail": "accepted"})
	client := newTestClient(t, transport)

	_, err := client.Submit(context.Background(), "fal-ai/imagen4/preview", map[string]any{})
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("err = %v, want *ProtocolError", err)
	}
	if !strings.Contains(protoErr.Error(), "missing status handle") {
		t.Fatalf("unexpected message: %v", protoErr)
	}
}

func TestQueueStatusFailureDetail(t *testing.T) {
	status := &QueueStatus{
		Error: "boom",
		Logs:  []queueLogEntry{{Message: "step 1"}, {Message: ""}, {Message: "step 2"}},
	}
	if got := status.FailureDetail(); got != "boom; step 1; step 2" {
		t.Fatalf("FailureDetail = %q", got)
	}
}
