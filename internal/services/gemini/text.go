package gemini

import (
	"context"
	"net/http"
	"strings"

	"backlot/internal/logging"
	"backlot/internal/services"
)

// GenerateStructured issues a JSON-only generation request and returns the
// raw structured payload produced by the model. The schema (when non-nil)
// constrains the response shape server-side.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema any) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "gemini", "text", "prompt required", nil)
	}

	payload := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	var response generateContentResponse
	if err := c.invoke(ctx, http.MethodPost, modelPath(c.textModel, "generateContent"), payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				c.logger.Debug("structured generation complete",
					logging.String("model", c.textModel),
					logging.Int("bytes", len(text)),
				)
				return []byte(text), nil
			}
		}
	}
	return nil, services.Wrap(services.ErrEmptyResult, "gemini", "text", "no content in response", nil)
}
