package gemini

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"backlot/internal/logging"
	"backlot/internal/services"
)

// VideoRequest describes one clip generation call.
type VideoRequest struct {
	Prompt string
	// References are still images the model should anchor the clip to.
	References      [][]byte
	DurationSeconds float64
	AspectRatio     string
}

// Operation is the asynchronous handle returned by StartVideo.
type Operation struct {
	Name string `json:"name"`
}

// PollResult reports the state of an in-flight video operation. Media is
// populated only when Done is true and the provider returned usable bytes.
type PollResult struct {
	Done     bool
	Media    []byte
	MediaURI string
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *inlineData `json:"image,omitempty"`
}

type videoParameters struct {
	AspectRatio     string  `json:"aspectRatio,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

type startVideoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI          string `json:"uri,omitempty"`
					EncodedVideo string `json:"encodedVideo,omitempty"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// StartVideo kicks off an asynchronous clip generation and returns its
// operation handle. Completion is observed through PollOperation.
func (c *Client) StartVideo(ctx context.Context, req VideoRequest) (*Operation, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "gemini", "video", "prompt required", nil)
	}

	instance := videoInstance{Prompt: prompt}
	for _, ref := range req.References {
		if len(ref) == 0 {
			continue
		}
		// The video API accepts a single anchor image per instance.
		instance.Image = &inlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(ref),
		}
		break
	}

	payload := startVideoRequest{
		Instances: []videoInstance{instance},
		Parameters: videoParameters{
			AspectRatio:     strings.TrimSpace(req.AspectRatio),
			DurationSeconds: req.DurationSeconds,
		},
	}

	var response operationResponse
	if err := c.invoke(ctx, http.MethodPost, modelPath(c.videoModel, "predictLongRunning"), payload, &response); err != nil {
		return nil, err
	}
	if strings.TrimSpace(response.Name) == "" {
		return nil, services.Wrap(services.ErrEmptyResult, "gemini", "video", "no operation handle returned", nil)
	}
	c.logger.Debug("video generation started",
		logging.String("model", c.videoModel),
		logging.String("operation", response.Name),
	)
	return &Operation{Name: response.Name}, nil
}

// PollOperation checks an asynchronous video operation. A done operation
// with no media is reported as an empty result rather than success.
func (c *Client) PollOperation(ctx context.Context, op *Operation) (*PollResult, error) {
	if op == nil || strings.TrimSpace(op.Name) == "" {
		return nil, services.Wrap(services.ErrValidation, "gemini", "poll", "operation handle required", nil)
	}

	var response operationResponse
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), nil, &response); err != nil {
		return nil, err
	}
	if !response.Done {
		return &PollResult{}, nil
	}
	if response.Error != nil {
		return nil, services.Wrap(services.ErrTransient, "gemini", "poll", response.Error.Message, nil)
	}
	if response.Response == nil {
		return nil, services.Wrap(services.ErrEmptyResult, "gemini", "poll", "done with no response payload", nil)
	}

	for _, sample := range response.Response.GenerateVideoResponse.GeneratedSamples {
		if encoded := strings.TrimSpace(sample.Video.EncodedVideo); encoded != "" {
			media, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, services.Wrap(services.ErrTransient, "gemini", "poll", "decode video payload", err)
			}
			if len(media) > 0 {
				return &PollResult{Done: true, Media: media}, nil
			}
		}
		if uri := strings.TrimSpace(sample.Video.URI); uri != "" {
			media, err := c.download(ctx, uri)
			if err != nil {
				return nil, err
			}
			if len(media) > 0 {
				return &PollResult{Done: true, Media: media, MediaURI: uri}, nil
			}
		}
	}
	return nil, services.Wrap(services.ErrEmptyResult, "gemini", "poll", "done with no media", nil)
}
