package engine

import (
	"encoding/json"
	"fmt"
	"math"
)

// Payload carries the operation-specific parameters of a job. Jobs persist
// an open JSON mapping; decoding into one struct keeps unknown keys ignored
// while the fields each operation needs stay strongly typed.
type Payload struct {
	Prompt        string   `json:"prompt"`
	ReferenceURL  string   `json:"reference_url"`
	ReferenceURLs []string `json:"reference_urls"`
	MaskURL       string   `json:"mask_url"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	Factor        float64  `json:"factor"`
}

// DecodePayload parses a job's raw payload. A nil payload decodes to the
// zero value so required-field validation produces the right error.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// cleanURLs drops empty entries from a reference list.
func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// clampDimension truncates a width or height to an integer within the
// provider-accepted range, falling back to def for non-finite or
// non-positive values.
func clampDimension(v float64, def int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return def
	}
	d := int(v)
	if d < 64 {
		return 64
	}
	if d > 4096 {
		return 4096
	}
	return d
}

// clampFactor truncates an upscale factor into [1, 4], defaulting to 2.
func clampFactor(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 2
	}
	f := int(v)
	if f < 1 {
		return 1
	}
	if f > 4 {
		return 4
	}
	return f
}
