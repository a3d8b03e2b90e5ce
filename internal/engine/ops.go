package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Descriptor statically describes one supported operation: the model
// endpoint behind it, whether it goes through the queue surface, the
// payload fields it cannot run without and how to build its request body.
// The set is immutable after init.
type Descriptor struct {
	Name          string
	Path          string
	Queued        bool
	RequiredInput bool
	Required      []string
	ForcePNG      bool
	SeedsOriginal bool
	Build         func(p Payload, inputURL string) map[string]any
}

// aliasEntry redirects an operation name onto another descriptor while
// overriding output behavior. remove_background currently rides on the
// general edit model; keeping the redirection in a table makes that reuse
// visible instead of burying it in a switch arm.
type aliasEntry struct {
	Target   string
	ForcePNG bool
}

var aliases = map[string]aliasEntry{
	"remove_background": {Target: "nano_banana", ForcePNG: true},
}

var descriptors = map[string]Descriptor{
	"imagen4": {
		Name:          "imagen4",
		Path:          "fal-ai/imagen4/preview",
		Queued:        true,
		Required:      []string{"prompt"},
		SeedsOriginal: true,
		Build: func(p Payload, _ string) map[string]any {
			return dualBody(map[string]any{"prompt": p.Prompt})
		},
	},
	"nano_banana": {
		Name:          "nano_banana",
		Path:          "fal-ai/nano-banana/edit",
		RequiredInput: true,
		Required:      []string{"prompt"},
		Build: func(p Payload, inputURL string) map[string]any {
			return dualBody(map[string]any{
				"prompt":     p.Prompt,
				"image":      inputURL,
				"image_urls": []string{inputURL},
			})
		},
	},
	"elements": {
		Name:          "elements",
		Path:          "fal-ai/nano-banana/edit",
		RequiredInput: true,
		Required:      []string{"prompt", "reference_url"},
		Build: func(p Payload, inputURL string) map[string]any {
			refs := cleanURLs([]string{p.ReferenceURL})
			return dualBody(map[string]any{
				"prompt":               p.Prompt,
				"image":                inputURL,
				"image_url":            inputURL,
				"image_urls":           append([]string{inputURL}, refs...),
				"reference_image_urls": refs,
			})
		},
	},
	"calligrapher": {
		Name:          "calligrapher",
		Path:          "fal-ai/calligrapher",
		RequiredInput: true,
		Required:      []string{"prompt"},
		Build: func(p Payload, inputURL string) map[string]any {
			return dualBody(map[string]any{
				"prompt":               formatCalligraphyPrompt(p.Prompt),
				"image":                inputURL,
				"image_url":            inputURL,
				"image_urls":           []string{inputURL},
				"source_image_url":     inputURL,
				"auto_mask_generation": true,
			})
		},
	},
	"ideogram_v3_reframe": {
		Name:          "ideogram_v3_reframe",
		Path:          "fal-ai/ideogram/v3/reframe",
		RequiredInput: true,
		Required:      []string{"width", "height"},
		Build: func(p Payload, inputURL string) map[string]any {
			return dualBody(map[string]any{
				"image":            inputURL,
				"image_url":        inputURL,
				"image_urls":       []string{inputURL},
				"source_image_url": inputURL,
				"image_size": map[string]any{
					"width":  clampDimension(p.Width, 1024),
					"height": clampDimension(p.Height, 1024),
				},
			})
		},
	},
	"ideogram_character_remix": {
		Name:          "ideogram_character_remix",
		Path:          "fal-ai/ideogram/character/remix",
		RequiredInput: true,
		Required:      []string{"prompt", "reference_urls"},
		Build: func(p Payload, inputURL string) map[string]any {
			return dualBody(map[string]any{
				"prompt":               p.Prompt,
				"image":                inputURL,
				"image_url":            inputURL,
				"source_image_url":     inputURL,
				"reference_image_urls": cleanURLs(p.ReferenceURLs),
			})
		},
	},
	"upscale": {
		Name:          "upscale",
		Path:          "fal-ai/aura-sr",
		Queued:        true,
		RequiredInput: true,
		Build: func(p Payload, inputURL string) map[string]any {
			return dualBody(map[string]any{
				"image_url":        inputURL,
				"upscaling_factor": clampFactor(p.Factor),
			})
		},
	},
	"inpaint": {
		Name:          "inpaint",
		Path:          "fal-ai/flux-pro/v1/fill",
		Queued:        true,
		RequiredInput: true,
		Required:      []string{"prompt", "mask_url"},
		Build: func(p Payload, inputURL string) map[string]any {
			return dualBody(map[string]any{
				"prompt":    p.Prompt,
				"image_url": inputURL,
				"mask_url":  p.MaskURL,
			})
		},
	},
}

// Lookup resolves an operation name, following the alias table, and returns
// the descriptor to execute. The returned copy carries the requested name so
// errors and history refer to what the job asked for.
func Lookup(name string) (Descriptor, bool) {
	requested := name
	forcePNG := false
	if alias, ok := aliases[name]; ok {
		name = alias.Target
		forcePNG = alias.ForcePNG
	}
	desc, ok := descriptors[name]
	if !ok {
		return Descriptor{}, false
	}
	desc.Name = requested
	desc.ForcePNG = desc.ForcePNG || forcePNG
	return desc, true
}

// Operations lists every executable operation name, aliases included.
func Operations() []string {
	names := make([]string, 0, len(descriptors)+len(aliases))
	for name := range descriptors {
		names = append(names, name)
	}
	for name := range aliases {
		names = append(names, name)
	}
	return names
}

// Validate checks the descriptor's required fields against a decoded
// payload. It must run before any network call.
func (d Descriptor) Validate(p Payload, inputURL string) error {
	var missing []string
	for _, field := range d.Required {
		switch field {
		case "prompt":
			if strings.TrimSpace(p.Prompt) == "" {
				missing = append(missing, "prompt")
			}
		case "reference_url":
			if strings.TrimSpace(p.ReferenceURL) == "" {
				missing = append(missing, "reference_url")
			}
		case "reference_urls":
			if len(cleanURLs(p.ReferenceURLs)) == 0 {
				missing = append(missing, "at least one reference url")
			}
		case "mask_url":
			if strings.TrimSpace(p.MaskURL) == "" {
				missing = append(missing, "mask_url")
			}
		case "width":
			if p.Width == 0 {
				missing = append(missing, "width")
			}
		case "height":
			if p.Height == 0 {
				missing = append(missing, "height")
			}
		}
	}
	if d.RequiredInput && strings.TrimSpace(inputURL) == "" {
		missing = append(missing, "an input image")
	}
	if len(missing) > 0 {
		return &ValidationError{Operation: d.Name, Missing: missing}
	}
	return nil
}

// dualBody duplicates every field at the top level and under an input key.
// fal models disagree on where they read parameters from; sending both
// keeps one request shape working across them.
func dualBody(fields map[string]any) map[string]any {
	body := make(map[string]any, len(fields)+1)
	inner := make(map[string]any, len(fields))
	for k, v := range fields {
		body[k] = v
		inner[k] = v
	}
	body["input"] = inner
	return body
}

var calligraphyPhrasing = regexp.MustCompile(`(?i)\btext\s+is\b`)

// formatCalligraphyPrompt rewrites a free-text prompt into the phrasing the
// calligrapher model expects. Prompts already in that phrasing pass through
// untouched, so re-applying the rewrite changes nothing.
func formatCalligraphyPrompt(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || calligraphyPhrasing.MatchString(trimmed) {
		return trimmed
	}
	return fmt.Sprintf("The text is '%s'", trimmed)
}
