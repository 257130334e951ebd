// Package podai asks a vision model whether a proof-of-delivery photo looks
// acceptable. Its answer is a hint for the human reviewer, never a decision.
package podai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	RecommendApprove = "approve"
	RecommendReject  = "reject"
	RecommendReview  = "manual_review"
)

var ErrDisabled = errors.New("pod analysis disabled: no API key configured")

// Analysis is stored on the POD as JSON.
type Analysis struct {
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Summary        string    `json:"summary"`
	Issues         []string  `json:"issues"`
	Simulated      bool      `json:"simulated"`
	Model          string    `json:"model,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// Fallback is the clearly flagged stand-in stored when the model cannot answer.
func Fallback(reason string, now time.Time) Analysis {
	return Analysis{
		Recommendation: RecommendReview,
		Confidence:     0,
		Summary:        "Automatic analysis unavailable. Review the delivery photo manually.",
		Issues:         []string{},
		Simulated:      true,
		Reason:         reason,
		AnalyzedAt:     now,
	}
}

// ImageSource reads stored images for refs that are not public URLs.
type ImageSource interface {
	Get(ctx context.Context, ref string) ([]byte, string, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Images     ImageSource
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	images  ImageSource
	now     func() time.Time
}

func New(cfg Config) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  cfg.HTTPClient,
		images:  cfg.Images,
		now:     time.Now,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

const prompt = `You review proof-of-delivery photos for a freight company.
Look for: a visible package or delivery location, a legible signature or stamp, damage, and whether the photo is blurry or unrelated.
Reply with JSON only: {"recommendation":"approve"|"reject"|"manual_review","confidence":0..1,"summary":"one sentence","issues":["..."]}`

func (c *Client) Analyze(ctx context.Context, imageRef string) (*Analysis, error) {
	if c.apiKey == "" {
		return nil, ErrDisabled
	}

	imageURL, err := c.imageURL(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURLPart{URL: imageURL}},
			},
		}},
		ResponseFormat: &responseFormat{Type: "json_object"},
		MaxTokens:      400,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vision service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("vision response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, errors.New("vision response has no choices")
	}

	a, err := parseVerdict(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	a.Model = cr.Model
	if a.Model == "" {
		a.Model = c.model
	}
	a.AnalyzedAt = c.now()
	return a, nil
}

// imageURL passes public URLs through and inlines everything else as a data URL.
func (c *Client) imageURL(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	if c.images == nil {
		return "", fmt.Errorf("image %s is not a URL and no image source is configured", ref)
	}

	data, contentType, err := c.images.Get(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("load image %s: %w", ref, err)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func parseVerdict(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	// some models wrap JSON in a markdown fence even when told not to
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v struct {
		Recommendation string   `json:"recommendation"`
		Confidence     float64  `json:"confidence"`
		Summary        string   `json:"summary"`
		Issues         []string `json:"issues"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return nil, fmt.Errorf("vision verdict is not JSON: %w", err)
	}

	rec := strings.ToLower(strings.TrimSpace(v.Recommendation))
	switch rec {
	case "approve", "approved":
		rec = RecommendApprove
	case "reject", "rejected":
		rec = RecommendReject
	case "manual_review", "review", "":
		rec = RecommendReview
	default:
		return nil, fmt.Errorf("unknown recommendation %q", v.Recommendation)
	}

	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	if v.Issues == nil {
		v.Issues = []string{}
	}

	return &Analysis{
		Recommendation: rec,
		Confidence:     v.Confidence,
		Summary:        v.Summary,
		Issues:         v.Issues,
	}, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
