package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClientGenerateTextRequest(t *testing.T) {
	const expectedURL = "http://genai.test/v1beta/models/gemini-2.0-flash:generateContent"
	respBody := `{"candidates":[{"content":{"parts":[{"text":"{\"intent\":"},{"text":"\"query_jobs\"}"}]}}]}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 1 {
			t.Fatalf("unexpected payload shape %+v", payload)
		}
		if payload.Contents[0].Parts[0].Text != "classify this" {
			t.Fatalf("unexpected prompt %q", payload.Contents[0].Parts[0].Text)
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key",
		WithBaseURL("http://genai.test/v1beta"),
		WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	text, err := client.GenerateText(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if text != `{"intent":"query_jobs"}` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestClientGenerateTextQuotaExhausted(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http 429", http.StatusTooManyRequests, `{"error":{"message":"Quota exceeded"}}`},
		{"resource exhausted", http.StatusForbidden, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: tc.status,
					Body:       io.NopCloser(strings.NewReader(tc.body)),
					Header:     http.Header{},
				}, nil
			})
			client, err := NewClient("test-key", WithHTTPClient(&http.Client{Transport: rt}))
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			_, err = client.GenerateText(context.Background(), "classify this")
			if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
				t.Fatalf("expected rate limit error, got %v", err)
			}
		})
	}
}

func TestClientGenerateTextServerError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"boom"}}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("test-key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GenerateText(context.Background(), "classify this")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
