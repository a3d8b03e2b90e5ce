package engine

import (
	"strings"
	"testing"
)

func TestLookupUnknownOperation(t *testing.T) {
	if _, ok := Lookup("style_transfer"); ok {
		t.Fatalf("expected lookup miss")
	}
}

func TestLookupAliasRemoveBackground(t *testing.T) {
	desc, ok := Lookup("remove_background")
	if !ok {
		t.Fatalf("alias not resolved")
	}
	if desc.Name != "remove_background" {
		t.Fatalf("name = %q, want remove_background", desc.Name)
	}
	if desc.Path != "fal-ai/nano-banana/edit" {
		t.Fatalf("path = %q, want the nano-banana edit model", desc.Path)
	}
	if !desc.ForcePNG {
		t.Fatalf("remove_background must force PNG output")
	}
	// The alias must not leak its override back onto the target.
	base, _ := Lookup("nano_banana")
	if base.ForcePNG {
		t.Fatalf("nano_banana should not force PNG")
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	cases := []struct {
		operation string
		payload   Payload
		inputURL  string
		want      []string
	}{
		{"nano_banana", Payload{}, "https://x/in.jpg", []string{"prompt"}},
		{"nano_banana", Payload{Prompt: "hat"}, "", []string{"input image"}},
		{"elements", Payload{Prompt: "mix"}, "https://x/in.jpg", []string{"reference_url"}},
		{"ideogram_character_remix", Payload{Prompt: "pose"}, "https://x/in.jpg", []string{"reference url"}},
		{"inpaint", Payload{Prompt: "fill"}, "https://x/in.jpg", []string{"mask_url"}},
		{"ideogram_v3_reframe", Payload{Width: 512}, "https://x/in.jpg", []string{"height"}},
		{"imagen4", Payload{}, "", []string{"prompt"}},
	}
	for _, tc := range cases {
		desc, ok := Lookup(tc.operation)
		if !ok {
			t.Fatalf("%s: descriptor missing", tc.operation)
		}
		err := desc.Validate(tc.payload, tc.inputURL)
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.operation)
		}
		for _, fragment := range tc.want {
			if !strings.Contains(err.Error(), fragment) {
				t.Fatalf("%s: error %q missing %q", tc.operation, err, fragment)
			}
		}
		if !strings.Contains(err.Error(), tc.operation) {
			t.Fatalf("%s: error %q does not name the operation", tc.operation, err)
		}
	}
}

func TestValidatePassesWithCompletePayload(t *testing.T) {
	desc, _ := Lookup("ideogram_character_remix")
	payload := Payload{Prompt: "pose", ReferenceURLs: []string{"https://x/ref.png"}}
	if err := desc.Validate(payload, "https://x/in.jpg"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDualBodyDuplicatesFields(t *testing.T) {
	desc, _ := Lookup("nano_banana")
	body := desc.Build(Payload{Prompt: "red hat"}, "https://x/in.jpg")
	if body["prompt"] != "red hat" {
		t.Fatalf("top-level prompt = %v", body["prompt"])
	}
	inner, ok := body["input"].(map[string]any)
	if !ok {
		t.Fatalf("input key missing")
	}
	if inner["prompt"] != "red hat" {
		t.Fatalf("nested prompt = %v", inner["prompt"])
	}
	if inner["image"] != "https://x/in.jpg" {
		t.Fatalf("nested image = %v", inner["image"])
	}
}

func TestReframeClampsDimensions(t *testing.T) {
	desc, _ := Lookup("ideogram_v3_reframe")
	body := desc.Build(Payload{Width: 9000.9, Height: 12.2}, "https://x/in.jpg")
	size := body["image_size"].(map[string]any)
	if size["width"] != 4096 {
		t.Fatalf("width = %v, want 4096", size["width"])
	}
	if size["height"] != 64 {
		t.Fatalf("height = %v, want 64", size["height"])
	}

	body = desc.Build(Payload{Width: 1500.7, Height: 800.2}, "https://x/in.jpg")
	size = body["image_size"].(map[string]any)
	if size["width"] != 1500 || size["height"] != 800 {
		t.Fatalf("dimensions not truncated: %v", size)
	}
}

func TestUpscaleFactorClamp(t *testing.T) {
	desc, _ := Lookup("upscale")
	cases := []struct {
		factor float64
		want   int
	}{
		{0, 2}, {-3, 2}, {2.9, 2}, {7, 4}, {1, 1},
	}
	for _, tc := range cases {
		body := desc.Build(Payload{Factor: tc.factor}, "https://x/in.jpg")
		if body["upscaling_factor"] != tc.want {
			t.Fatalf("factor %v → %v, want %d", tc.factor, body["upscaling_factor"], tc.want)
		}
	}
}

func TestFormatCalligraphyPromptIsIdempotent(t *testing.T) {
	once := formatCalligraphyPrompt("Grand Opening")
	if once != "The text is 'Grand Opening'" {
		t.Fatalf("first pass = %q", once)
	}
	twice := formatCalligraphyPrompt(once)
	if twice != once {
		t.Fatalf("second pass changed the prompt: %q vs %q", twice, once)
	}
	// Case-insensitive match counts as already formatted.
	preformatted := "the TEXT IS 'hello'"
	if got := formatCalligraphyPrompt(preformatted); got != preformatted {
		t.Fatalf("preformatted prompt rewritten: %q", got)
	}
	if got := formatCalligraphyPrompt("  "); got != "" {
		t.Fatalf("blank prompt = %q, want empty", got)
	}
}

func TestOperationsIncludeAliases(t *testing.T) {
	names := Operations()
	seen := map[string]bool{}
	for _, name := range names {
		seen[name] = true
	}
	for _, want := range []string{"imagen4", "nano_banana", "remove_background", "calligrapher", "elements", "ideogram_v3_reframe", "ideogram_character_remix", "upscale", "inpaint"} {
		if !seen[want] {
			t.Fatalf("Operations missing %q (got %v)", want, names)
		}
	}
}
