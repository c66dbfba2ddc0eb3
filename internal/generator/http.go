package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kpauljoseph/cardforge/internal/material"
	"github.com/kpauljoseph/cardforge/pkg/logger"
	"github.com/kpauljoseph/cardforge/pkg/models"
	"github.com/kpauljoseph/cardforge/pkg/version"
)

const (
	DefaultBaseURL = "http://localhost:5050"
	DefaultTimeout = 5 * time.Minute
	generatePath   = "/api/generate"
)

// StatusError is a failed generation: a non-2xx response or a body carrying
// an "error" field.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generator: HTTP %d", e.Code)
	}
	return fmt.Sprintf("generator: HTTP %d: %s", e.Code, e.Body)
}

// HTTP posts documents to the generation service as multipart forms.
type HTTP struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

type Option func(*HTTP)

func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTP) {
		g.client = c
	}
}

// WithTimeout sets the request timeout on a copy of the current client, so a
// client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(g *HTTP) {
		c := *g.client
		c.Timeout = d
		g.client = &c
	}
}

func NewHTTP(baseURL string, log *logger.Logger, opts ...Option) *HTTP {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Discard()
	}
	g := &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *HTTP) Generate(ctx context.Context, doc material.Document, counts models.Counts, topic string) (Content, error) {
	body, contentType, err := encodeForm(doc, counts, topic)
	if err != nil {
		return Content{}, errors.Wrap(err, "build generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+generatePath, body)
	if err != nil {
		return Content{}, errors.Wrap(err, "build generate request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", version.UserAgent())

	g.logger.Debug("Requesting %d cards for %s from %s", counts.Total(), doc.Name, g.baseURL)
	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return Content{}, errors.Wrapf(err, "cannot reach generator at %s", g.baseURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Content{}, errors.Wrap(err, "read generator response")
	}
	if resp.StatusCode >= 300 {
		return Content{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var envelope struct {
		Content
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Content{}, errors.Wrap(err, "parse generator response")
	}
	if envelope.Error != "" {
		return Content{}, &StatusError{Code: resp.StatusCode, Body: envelope.Error}
	}

	g.logger.Debug("Generator returned %d pair, %d fill-blank, %d multiple-choice items in %s",
		len(envelope.Pair), len(envelope.FillBlank), len(envelope.MultipleChoice), time.Since(start).Round(time.Millisecond))
	return envelope.Content, nil
}

func encodeForm(doc material.Document, counts models.Counts, topic string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := doc.ContentType
	if contentType == "" {
		contentType = material.DefaultContentType
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, doc.FileName()))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, "", err
	}

	requests, err := requestCounts(counts)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("requests", requests); err != nil {
		return nil, "", err
	}
	if topic != "" {
		if err := w.WriteField("topic_context", topic); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
