package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/kpauljoseph/cardforge/pkg/models"
)

var ErrNotFound = errors.New("store: record not found")

// RecordStore persists card groups and cards in the two-field shape.
type RecordStore interface {
	CreateGroup(ctx context.Context, name, parentID string) (models.Group, error)
	CreateCard(ctx context.Context, card models.StoredCard) (models.StoredCard, error)
	ListCards(ctx context.Context, groupID string) ([]models.StoredCard, error)
	UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.StoredCard, error)
	DeleteCard(ctx context.Context, id string) error
}

// StatusError is a non-2xx response; Body is the raw response text.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Body)
}
