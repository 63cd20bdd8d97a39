package gemini

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"backlot/internal/logging"
	"backlot/internal/services"
)

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt string
	// References are existing images (raw bytes) the model should stay
	// visually consistent with, e.g. the character sheet when generating
	// the background plate.
	References [][]byte
}

// GenerateImage produces one reference image. A response without inline
// image data is reported as an empty result, never as success.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "gemini", "image", "prompt required", nil)
	}

	parts := make([]part, 0, 1+len(req.References))
	parts = append(parts, part{Text: prompt})
	for _, ref := range req.References {
		if len(ref) == 0 {
			continue
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(ref),
		}})
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}

	var response generateContentResponse
	if err := c.invoke(ctx, http.MethodPost, modelPath(c.imageModel, "generateContent"), payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, services.Wrap(services.ErrTransient, "gemini", "image", "decode inline data", err)
			}
			if len(data) == 0 {
				continue
			}
			c.logger.Debug("image generation complete",
				logging.String("model", c.imageModel),
				logging.Int("bytes", len(data)),
			)
			return data, nil
		}
	}
	return nil, services.Wrap(services.ErrEmptyResult, "gemini", "image", "no image in response", nil)
}
