package fal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// responseEnvelope covers the response shapes fal models disagree on.
// The image field is raw because it is a string for some models and an
// object with a url for others.
type responseEnvelope struct {
	Images []imageRef      `json:"images"`
	Image  json.RawMessage `json:"image"`
	Data   struct {
		Images []imageRef `json:"images"`
	} `json:"data"`
}

type imageRef struct {
	URL string `json:"url"`
}

// extractor is one pure strategy for locating image bytes in a decoded
// response. It reports false when the response does not match its shape;
// an error is only returned for a matching shape that failed to produce
// bytes (bad fetch, bad base64).
type extractor func(ctx context.Context, c *Client, env *responseEnvelope) ([]byte, bool, error)

// Extraction order matters: synchronous responses carry images[], some
// models return a singular image, and queued result envelopes nest the
// list under data.
var extractors = []extractor{
	extractImagesURL,
	extractImageURL,
	extractInlineImage,
	extractDataImagesURL,
}

// ResolveImage extracts the output image bytes from a raw provider
// response, trying each known shape in priority order.
func (c *Client) ResolveImage(ctx context.Context, operation string, raw json.RawMessage) ([]byte, error) {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("fal: decode response: %w", err)
	}
	for _, extract := range extractors {
		data, ok, err := extract(ctx, c, &env)
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}
	}
	return nil, &MissingImageError{Operation: operation}
}

func extractImagesURL(ctx context.Context, c *Client, env *responseEnvelope) ([]byte, bool, error) {
	if len(env.Images) == 0 || strings.TrimSpace(env.Images[0].URL) == "" {
		return nil, false, nil
	}
	data, err := c.download(ctx, env.Images[0].URL)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

func extractImageURL(ctx context.Context, c *Client, env *responseEnvelope) ([]byte, bool, error) {
	var ref imageRef
	if len(env.Image) == 0 || json.Unmarshal(env.Image, &ref) != nil {
		return nil, false, nil
	}
	if strings.TrimSpace(ref.URL) == "" {
		return nil, false, nil
	}
	data, err := c.download(ctx, ref.URL)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

func extractInlineImage(_ context.Context, _ *Client, env *responseEnvelope) ([]byte, bool, error) {
	var inline string
	if len(env.Image) == 0 || json.Unmarshal(env.Image, &inline) != nil {
		return nil, false, nil
	}
	if !strings.HasPrefix(inline, "data:") {
		return nil, false, nil
	}
	idx := strings.Index(inline, ",")
	if idx < 0 {
		return nil, true, fmt.Errorf("fal: malformed data url")
	}
	data, err := base64.StdEncoding.DecodeString(inline[idx+1:])
	if err != nil {
		return nil, true, fmt.Errorf("fal: decode inline image: %w", err)
	}
	return data, true, nil
}

func extractDataImagesURL(ctx context.Context, c *Client, env *responseEnvelope) ([]byte, bool, error) {
	if len(env.Data.Images) == 0 || strings.TrimSpace(env.Data.Images[0].URL) == "" {
		return nil, false, nil
	}
	data, err := c.download(ctx, env.Data.Images[0].URL)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}
