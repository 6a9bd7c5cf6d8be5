// Package review talks to the remote resume analysis service.
package review

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

	"github.com/resumend/client/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the hosted analysis service.
	DefaultBaseURL = "https://headstarter-resume-app.onrender.com"

	DefaultUploadPath   = "/upload"
	DefaultQueryPath    = "/query"
	DefaultQueryTimeout = 20 * time.Second

	// SessionHeader carries the session token on query requests.
	SessionHeader = "X-Session-ID"

	// FileField is the multipart field holding the resume.
	FileField = "file"

	maxErrorBody = 4 * 1024
)

var (
	// ErrMalformedResponse is returned when a 2xx body does not match the
	// expected envelope or lacks the required field.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrTimeout is returned when the query deadline expires.
	ErrTimeout = errors.New("Request timed out")

	// ErrNoFile is returned when Upload is called without a file.
	ErrNoFile = errors.New("no file to upload")
)

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	Exchange string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Exchange, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Exchange, e.Code, e.Body)
}

// Client performs the upload and query exchanges.
type Client struct {
	baseURL      string
	uploadPath   string
	queryPath    string
	queryTimeout time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a client with the hosted defaults, adjusted by opts.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		uploadPath:   DefaultUploadPath,
		queryPath:    DefaultQueryPath,
		queryTimeout: DefaultQueryTimeout,
		httpClient:   &http.Client{},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// BaseURL returns the service origin in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type uploadEnvelope struct {
	Response *struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	} `json:"response"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryEnvelope struct {
	Response *struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	} `json:"response"`
}

// Upload sends the file as multipart form data and returns the session id.
// No client-side timeout is applied beyond ctx.
func (c *Client) Upload(ctx context.Context, file *models.UploadedFile) (string, error) {
	if file == nil {
		return "", ErrNoFile
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", multipart.FileContentDisposition(FileField, file.Name))
	header.Set("Content-Type", file.MediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("creating form part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("writing form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.uploadPath, body)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("uploading file", zap.String("name", file.Name), zap.Int64("size", file.Size()))

	var env uploadEnvelope
	if err := c.do(req, "upload", &env); err != nil {
		return "", err
	}
	if env.Response == nil || env.Response.SessionID == "" {
		return "", fmt.Errorf("upload: %w: missing response.session_id", ErrMalformedResponse)
	}
	return env.Response.SessionID, nil
}

// Query asks the service about the session's resume. The request is
// abandoned with ErrTimeout once the query timeout elapses.
func (c *Client) Query(ctx context.Context, sessionID, text string) (string, error) {
	payload, err := json.Marshal(queryRequest{Query: text})
	if err != nil {
		return "", fmt.Errorf("encoding query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.queryPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set(SessionHeader, sessionID)
	req.Header.Set("Content-Type", "application/json")

	var env queryEnvelope
	if err := c.do(req, "query", &env); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", err
	}
	if env.Response == nil || env.Response.Answer == "" {
		return "", fmt.Errorf("query: %w: missing response.answer", ErrMalformedResponse)
	}
	return env.Response.Answer, nil
}

// do executes req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, exchange string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", exchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Exchange: exchange,
			Code:     resp.StatusCode,
			Body:     strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// a deadline hit mid-body surfaces here as a read error
		if req.Context().Err() != nil {
			return fmt.Errorf("%s: %w", exchange, req.Context().Err())
		}
		return fmt.Errorf("%s: %w: %v", exchange, ErrMalformedResponse, err)
	}
	return nil
}
