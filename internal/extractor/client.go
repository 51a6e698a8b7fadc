package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 30 * time.Second
)

// Client talks to the embedding server over HTTP. One POST per image;
// the response carries the embedding and its dimensionality.
type Client struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates an extractor client. Empty arguments fall back to
// defaults (localhost server, 30s per-image timeout).
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// embeddingResponse is the embedding server's JSON response.
type embeddingResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// Extract computes the face embedding for an image. Large images are
// downscaled before upload to bound payload size. Any failure, including
// a deadline hit, is reported as ExtractionError.
func (c *Client) Extract(ctx context.Context, image []byte) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := image
	if resized, err := PrepareImage(image, maxImageDimension); err == nil {
		payload = resized
	}

	body, err := c.postImage(ctx, "/embed/face", payload)
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}

	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ExtractionError{Cause: fmt.Errorf("parse response: %w", err)}
	}
	if len(resp.Embedding) == 0 {
		return nil, &ExtractionError{Cause: errors.New("empty embedding returned")}
	}
	if resp.Dim > 0 && resp.Dim != len(resp.Embedding) {
		return nil, &ExtractionError{Cause: fmt.Errorf("server reported dim %d but returned %d values", resp.Dim, len(resp.Embedding))}
	}

	return resp.Embedding, nil
}

// Model returns the configured extraction model name.
func (c *Client) Model() string {
	return c.model
}

// postImage uploads the image as a multipart form and returns the raw
// response body. The part carries an explicit Content-Type from magic
// byte detection so the server can reject non-images early.
func (c *Client) postImage(ctx context.Context, endpoint string, image []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", detectMIMEType(image))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	url := c.baseURL + endpoint
	if c.model != "" {
		url += "?model=" + c.model
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the image MIME type from magic bytes.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
