// ABOUTME: Client for the reference song comparison service
// ABOUTME: Uploads a recording as multipart form data and decodes the score
package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the comparison service
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL, e.g. "http://localhost:8000"
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Request describes one comparison. Either File or Reader must be set;
// Filename names the upload when Reader is used.
type Request struct {
	SongID string

	File     string
	Reader   io.Reader
	Filename string

	// Optional analysis parameters; nil leaves the server default
	Hop         *int
	Delta       *float64
	MatchWindow *float64
	SR          *int
}

// Result is the service response. Details is passed through untouched.
type Result struct {
	Score      float64         `json:"score"`
	Similarity float64         `json:"similarity"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("compare service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("compare service returned %d: %s", e.StatusCode, e.Body)
}

// Compare uploads the recording and returns the score
func (c *Client) Compare(ctx context.Context, req Request) (*Result, error) {
	if req.SongID == "" {
		return nil, fmt.Errorf("song id is required")
	}

	audio, name, err := req.open()
	if err != nil {
		return nil, err
	}
	if closer, ok := audio.(io.Closer); ok && req.Reader == nil {
		defer closer.Close()
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("song_id", req.SongID); err != nil {
		return nil, fmt.Errorf("write song_id: %w", err)
	}
	for field, value := range req.params() {
		if err := mw.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("write %s: %w", field, err)
		}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/compare", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	requestID := uuid.New().String()
	httpReq.Header.Set("X-Request-ID", requestID)

	log.Printf("Comparing %s against song %s (request %s)", name, req.SongID, requestID)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (r Request) open() (io.Reader, string, error) {
	if r.Reader != nil {
		name := r.Filename
		if name == "" {
			name = "recording.wav"
		}
		return r.Reader, name, nil
	}
	if r.File == "" {
		return nil, "", fmt.Errorf("no audio to compare")
	}
	f, err := os.Open(r.File)
	if err != nil {
		return nil, "", fmt.Errorf("open recording: %w", err)
	}
	return f, filepath.Base(r.File), nil
}

func (r Request) params() map[string]string {
	out := make(map[string]string)
	if r.Hop != nil {
		out["hop"] = strconv.Itoa(*r.Hop)
	}
	if r.Delta != nil {
		out["delta"] = strconv.FormatFloat(*r.Delta, 'f', -1, 64)
	}
	if r.MatchWindow != nil {
		out["match_window"] = strconv.FormatFloat(*r.MatchWindow, 'f', -1, 64)
	}
	if r.SR != nil {
		out["sr"] = strconv.Itoa(*r.SR)
	}
	return out
}
