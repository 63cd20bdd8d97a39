package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"backlot/internal/logging"
	"backlot/internal/services"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultTextModel   = "gemini-2.5-flash"
	defaultImageModel  = "gemini-2.5-flash-image"
	defaultVideoModel  = "veo-3.0-generate-001"
	defaultHTTPTimeout = 120 * time.Second
)

// Options captures the runtime settings required to talk to the provider.
type Options struct {
	APIKey         string
	BaseURL        string
	TextModel      string
	ImageModel     string
	VideoModel     string
	TimeoutSeconds int
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client is a thin facade over the generative model service. It translates
// domain requests into API calls and normalizes the three failure shapes the
// pipeline cares about: transient errors, validation errors, and completed
// responses that carry no media.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a provider client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "new", "api key required", nil)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := defaultHTTPTimeout
		if opts.TimeoutSeconds > 0 {
			timeout = time.Duration(opts.TimeoutSeconds) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		textModel:  strings.TrimSpace(opts.TextModel),
		imageModel: strings.TrimSpace(opts.ImageModel),
		videoModel: strings.TrimSpace(opts.VideoModel),
		httpClient: httpClient,
		logger:     logging.NewComponentLogger(logger, "gemini"),
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.textModel == "" {
		client.textModel = defaultTextModel
	}
	if client.imageModel == "" {
		client.imageModel = defaultImageModel
	}
	if client.videoModel == "" {
		client.videoModel = defaultVideoModel
	}
	return client, nil
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
	ResponseSchema   any    `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrValidation, "gemini", "invoke", "marshal request", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return services.Wrap(services.ErrValidation, "gemini", "invoke", "build request", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "gemini", "invoke", "http error", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "gemini", "invoke", "read body", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return services.Wrap(services.ErrTransient, "gemini", "invoke", "decode response", err)
		}
	}
	return nil
}

func (c *Client) statusError(status int, body []byte) error {
	marker := services.ErrTransient
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError && status != http.StatusTooManyRequests && status != http.StatusRequestTimeout {
		marker = services.ErrValidation
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return services.Wrap(marker, "gemini", "invoke", fmt.Sprintf("status %d: %s", status, apiErr.Error.Message), nil)
	}
	detail := strings.TrimSpace(string(body))
	if detail != "" {
		return services.Wrap(marker, "gemini", "invoke", fmt.Sprintf("status %d: %s", status, detail), nil)
	}
	return services.Wrap(marker, "gemini", "invoke", fmt.Sprintf("status %d", status), nil)
}

func (c *Client) download(ctx context.Context, uri string) ([]byte, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "gemini", "download", "build request", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "gemini", "download", "http error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, c.statusError(resp.StatusCode, data)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "gemini", "download", "read body", err)
	}
	return blob, nil
}

func modelPath(model, verb string) string {
	return fmt.Sprintf("/models/%s:%s", url.PathEscape(model), verb)
}
