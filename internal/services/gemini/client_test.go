package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backlot/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, server
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateStructuredReturnsFirstTextPart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("expected JSON response mime type, got %+v", req.GenerationConfig)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": `{"ok":true}`}},
				},
			}},
		})
	}))

	out, err := client.GenerateStructured(context.Background(), "plan something", nil)
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	if string(out) != `{"ok":true}` {
		t.Fatalf("unexpected payload %q", out)
	}
}

func TestGenerateStructuredEmptyCandidates(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))

	if _, err := client.GenerateStructured(context.Background(), "plan", nil); !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
}

func TestGenerateImageDecodesInlineData(t *testing.T) {
	pixels := []byte{0x89, 0x50, 0x4e, 0x47}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(pixels),
						},
					}},
				},
			}},
		})
	}))

	data, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "hero sheet"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(data) != string(pixels) {
		t.Fatalf("unexpected image bytes %v", data)
	}
}

func TestGenerateImageNoInlineData(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "sorry, no image"}},
				},
			}},
		})
	}))

	if _, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "hero"}); !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
}

func TestStartVideoReturnsOperationHandle(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/abc123"})
	}))

	op, err := client.StartVideo(context.Background(), VideoRequest{Prompt: "a chase scene"})
	if err != nil {
		t.Fatalf("StartVideo: %v", err)
	}
	if op.Name != "operations/abc123" {
		t.Fatalf("unexpected operation %q", op.Name)
	}
}

func TestPollOperationNotDone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/abc", "done": false})
	}))

	result, err := client.PollOperation(context.Background(), &Operation{Name: "operations/abc"})
	if err != nil {
		t.Fatalf("PollOperation: %v", err)
	}
	if result.Done {
		t.Fatal("expected pending operation")
	}
}

func TestPollOperationDownloadsMediaURI(t *testing.T) {
	clip := []byte("fake-mp4-bytes")
	mux := http.NewServeMux()
	mux.HandleFunc("/operations/abc", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/abc",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{{
						"video": map[string]any{"uri": "/files/clip.mp4"},
					}},
				},
			},
		})
	})
	mux.HandleFunc("/files/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write(clip)
	})
	client, _ := newTestClient(t, mux)

	result, err := client.PollOperation(context.Background(), &Operation{Name: "operations/abc"})
	if err != nil {
		t.Fatalf("PollOperation: %v", err)
	}
	if !result.Done || string(result.Media) != string(clip) {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPollOperationDoneWithoutMedia(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/abc",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []any{},
				},
			},
		})
	}))

	if _, err := client.PollOperation(context.Background(), &Operation{Name: "operations/abc"}); !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
}

func TestInvokeErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota exceeded"},
		})
	}))

	_, err := client.GenerateStructured(context.Background(), "plan", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error for 429, got %v", err)
	}
}

func TestInvokeBadRequestIsValidation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "invalid schema"},
		})
	}))

	_, err := client.GenerateStructured(context.Background(), "plan", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for 400, got %v", err)
	}
}
