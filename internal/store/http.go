package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kpauljoseph/cardforge/pkg/logger"
	"github.com/kpauljoseph/cardforge/pkg/models"
	"github.com/kpauljoseph/cardforge/pkg/version"
)

const (
	DefaultBaseURL = "http://localhost:3001"
	MaxRetries     = 3
	RetryDelay     = 500 * time.Millisecond
)

// HTTP talks to the REST record store. Reads are retried; writes are sent
// exactly once.
type HTTP struct {
	baseURL    string
	client     *http.Client
	logger     *logger.Logger
	retryDelay time.Duration
}

type HTTPOption func(*HTTP)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTP) {
		s.client = c
	}
}

func WithRetryDelay(d time.Duration) HTTPOption {
	return func(s *HTTP) {
		s.retryDelay = d
	}
}

func NewHTTP(baseURL string, log *logger.Logger, opts ...HTTPOption) *HTTP {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Discard()
	}
	s := &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		retryDelay: RetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// wireCard is the JSON the store accepts and returns. Ids come back as
// numbers from the SQLite-backed server, so they are decoded leniently.
type wireCard struct {
	ID                    flexibleID `json:"id,omitempty"`
	Front                 string     `json:"front"`
	Back                  string     `json:"back"`
	FlashcardSetID        flexibleID `json:"flashcardSetId,omitempty"`
	Type                  string     `json:"type,omitempty"`
	TermImage             *string    `json:"term_image,omitempty"`
	DefinitionImage       *string    `json:"definition_image,omitempty"`
	FillBlankAnswers      []string   `json:"fillBlankAnswers,omitempty"`
	MultipleChoiceOptions []string   `json:"multipleChoiceOptions,omitempty"`
	CorrectAnswerIndex    *int       `json:"correctAnswerIndex,omitempty"`
}

type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = flexibleID(n.String())
	return nil
}

func (id flexibleID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return json.Marshal(n)
	}
	return json.Marshal(string(id))
}

func toWire(c models.StoredCard) wireCard {
	return wireCard{
		ID:                    flexibleID(c.ID),
		Front:                 c.Front,
		Back:                  c.Back,
		FlashcardSetID:        flexibleID(c.GroupID),
		Type:                  string(c.Type),
		TermImage:             c.TermImage,
		DefinitionImage:       c.DefinitionImage,
		FillBlankAnswers:      c.FillBlankAnswers,
		MultipleChoiceOptions: c.MultipleChoiceOptions,
		CorrectAnswerIndex:    c.CorrectAnswerIndex,
	}
}

type wirePatch struct {
	Front                 *string   `json:"front,omitempty"`
	Back                  *string   `json:"back,omitempty"`
	Type                  *string   `json:"type,omitempty"`
	TermImage             *string   `json:"term_image,omitempty"`
	DefinitionImage       *string   `json:"definition_image,omitempty"`
	FillBlankAnswers      *[]string `json:"fillBlankAnswers,omitempty"`
	MultipleChoiceOptions *[]string `json:"multipleChoiceOptions,omitempty"`
	CorrectAnswerIndex    *int      `json:"correctAnswerIndex,omitempty"`
}

func toWirePatch(p models.CardPatch) wirePatch {
	w := wirePatch{
		Front:                 p.Front,
		Back:                  p.Back,
		TermImage:             p.TermImage,
		DefinitionImage:       p.DefinitionImage,
		FillBlankAnswers:      p.FillBlankAnswers,
		MultipleChoiceOptions: p.MultipleChoiceOptions,
		CorrectAnswerIndex:    p.CorrectAnswerIndex,
	}
	if p.Type != nil {
		t := string(*p.Type)
		w.Type = &t
	}
	return w
}

func (w wireCard) toModel() models.StoredCard {
	return models.StoredCard{
		ID:                    string(w.ID),
		GroupID:               string(w.FlashcardSetID),
		Front:                 w.Front,
		Back:                  w.Back,
		Type:                  models.Kind(w.Type),
		TermImage:             w.TermImage,
		DefinitionImage:       w.DefinitionImage,
		FillBlankAnswers:      w.FillBlankAnswers,
		MultipleChoiceOptions: w.MultipleChoiceOptions,
		CorrectAnswerIndex:    w.CorrectAnswerIndex,
	}
}

func (s *HTTP) CreateGroup(ctx context.Context, name, parentID string) (models.Group, error) {
	body := map[string]interface{}{"name": name}
	if parentID != "" {
		body["studySetId"] = flexibleID(parentID)
	}

	var resp struct {
		ID         flexibleID `json:"id"`
		Name       string     `json:"name"`
		StudySetID flexibleID `json:"study_set_id"`
	}
	if err := s.send(ctx, "create group", http.MethodPost, "/api/flashcard-sets", body, &resp); err != nil {
		return models.Group{}, err
	}
	if resp.ID == "" {
		return models.Group{}, errors.New("create group: response has no id")
	}
	if resp.Name == "" {
		resp.Name = name
	}
	return models.Group{ID: string(resp.ID), Name: resp.Name, ParentID: parentID}, nil
}

func (s *HTTP) CreateCard(ctx context.Context, card models.StoredCard) (models.StoredCard, error) {
	var resp wireCard
	if err := s.send(ctx, "create card", http.MethodPost, "/api/flashcards", toWire(card), &resp); err != nil {
		return models.StoredCard{}, err
	}
	if resp.ID == "" {
		return models.StoredCard{}, errors.New("create card: response has no id")
	}
	return mergeSaved(card, resp.toModel()), nil
}

// mergeSaved fills fields the store did not echo back from what was sent.
func mergeSaved(sent, saved models.StoredCard) models.StoredCard {
	out := sent
	out.ID = saved.ID
	if saved.Front != "" {
		out.Front = saved.Front
	}
	if saved.Back != "" {
		out.Back = saved.Back
	}
	if saved.GroupID != "" {
		out.GroupID = saved.GroupID
	}
	return out
}

func (s *HTTP) ListCards(ctx context.Context, groupID string) ([]models.StoredCard, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Info("Retrying request (attempt %d/%d)...", attempt+1, MaxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		var resp []wireCard
		path := "/api/flashcards?flashcardSetId=" + url.QueryEscape(groupID)
		err := s.send(ctx, "list cards", http.MethodGet, path, nil, &resp)
		if err == nil {
			cards := make([]models.StoredCard, 0, len(resp))
			for _, w := range resp {
				cards = append(cards, w.toModel())
			}
			return cards, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "after %d attempts", MaxRetries)
}

func (s *HTTP) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.StoredCard, error) {
	var resp wireCard
	path := "/api/flashcards/" + url.PathEscape(id)
	if err := s.send(ctx, "update card", http.MethodPut, path, toWirePatch(patch), &resp); err != nil {
		return models.StoredCard{}, err
	}
	updated := patch.Apply(resp.toModel())
	updated.ID = id
	return updated, nil
}

func (s *HTTP) DeleteCard(ctx context.Context, id string) error {
	path := "/api/flashcards/" + url.PathEscape(id)
	return s.send(ctx, "delete card", http.MethodDelete, path, nil, nil)
}

// FetchMaterial downloads a stored material file by name.
func (s *HTTP) FetchMaterial(ctx context.Context, name string) ([]byte, string, error) {
	path := "/api/materials/file/" + url.PathEscape(name)
	req, err := s.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "fetch material")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrap(err, "read material")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", errors.Wrapf(ErrNotFound, "fetch material %s", name)
	}
	if resp.StatusCode >= 300 {
		return nil, "", &StatusError{Op: "fetch material", Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (s *HTTP) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", version.UserAgent())
	return req, nil
}

func (s *HTTP) send(ctx context.Context, op, method, path string, body, out interface{}) error {
	req, err := s.newRequest(ctx, method, path, body)
	if err != nil {
		return errors.Wrap(err, op)
	}
	s.logger.Trace("%s %s", method, req.URL)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s: read response", op)
	}
	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrNotFound, "%s: %s", op, strings.TrimSpace(string(data)))
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s: parse response", op)
	}
	return nil
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
