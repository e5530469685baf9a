package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for the generative-AI client. One client serves both the vision
// extraction and the text enrichment calls; they differ only in model id
// and whether an inline payload is attached.
type Config struct {
	BaseURL     string        // default https://generativelanguage.googleapis.com/v1
	APIKey      string        // query-string key auth
	TextModel   string        // e.g. "gemini-2.5-flash"
	VisionModel string        // may equal TextModel
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1"
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-2.5-flash"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// TextModel returns the configured text-generation model id.
func (c *Client) TextModel() string { return c.cfg.TextModel }

// VisionModel returns the configured vision model id.
func (c *Client) VisionModel() string { return c.cfg.VisionModel }

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerateText runs one text-only generation call and returns the raw text
// of the first candidate.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	return c.generate(ctx, model, []part{{Text: prompt}}, 0)
}

// GenerateVision runs one generation call with an inline document payload.
func (c *Client) GenerateVision(ctx context.Context, model, prompt string, payload []byte, mimeType string) (string, error) {
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(payload),
		}},
	}
	return c.generate(ctx, model, parts, len(payload))
}

func (c *Client) generate(ctx context.Context, model string, parts []part, payloadBytes int) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("genai.generate.start",
		"req_id", rid,
		"model", model,
		"payload_bytes", payloadBytes,
	)

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), model, c.cfg.APIKey)

	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("genai.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("genai.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("genai.generate.no_candidates",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("no candidates in provider response")
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	c.logger.Info("genai.generate.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider http error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("provider response body close error", "error", cerr)
		}
	}()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
