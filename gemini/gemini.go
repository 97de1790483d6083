// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini implements the image describer capability against the
// Gemini generateContent API. It satisfies both types.Describer and
// types.ContextDescriber, so it works with the synchronous and concurrent
// resolution paths alike.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/developer0hye/anytomd/internal/httputil"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

// baseURL is a variable so tests can point the client at a local server.
var baseURL = "https://generativelanguage.googleapis.com/v1beta"

// Describer calls the Gemini API to produce alt text for images. Safe for
// concurrent use.
type Describer struct {
	apiKey string
	model  string
	client *http.Client
}

// New returns a describer with the given key. An empty model selects
// DefaultModel.
func New(apiKey, model string) *Describer {
	if model == "" {
		model = DefaultModel
	}
	return &Describer{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// FromEnv builds a describer from the GEMINI_API_KEY environment variable.
func FromEnv() (*Describer, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	return New(key, os.Getenv("GEMINI_MODEL")), nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Describe implements types.Describer.
func (d *Describer) Describe(image []byte, mimeType, prompt string) (string, error) {
	return d.DescribeContext(context.Background(), image, mimeType, prompt)
}

// DescribeContext implements types.ContextDescriber.
func (d *Describer) DescribeContext(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
				{Text: prompt},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", baseURL, d.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", d.apiKey)

	resp, err := httputil.DoWithRetry(ctx, d.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini returned %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
