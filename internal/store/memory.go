package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/kpauljoseph/cardforge/pkg/models"
)

// FailFunc decides whether a create call should fail. n counts create calls
// starting at 1.
type FailFunc func(n int, card models.StoredCard) error

// Memory is an in-process RecordStore. It assigns sequential numeric ids the
// way the SQLite-backed server does.
type Memory struct {
	mu       sync.Mutex
	nextID   int
	groups   map[string]models.Group
	cards    map[string]models.StoredCard
	order    []string
	creates  int
	failCard FailFunc
	failGrp  error
}

func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]models.Group),
		cards:  make(map[string]models.StoredCard),
	}
}

// FailCardsWith installs a failure hook for CreateCard.
func (m *Memory) FailCardsWith(fn FailFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCard = fn
}

// FailGroupsWith makes every CreateGroup call return err.
func (m *Memory) FailGroupsWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGrp = err
}

func (m *Memory) id() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

func (m *Memory) CreateGroup(ctx context.Context, name, parentID string) (models.Group, error) {
	if err := ctx.Err(); err != nil {
		return models.Group{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGrp != nil {
		return models.Group{}, m.failGrp
	}
	g := models.Group{ID: m.id(), Name: name, ParentID: parentID}
	m.groups[g.ID] = g
	return g, nil
}

func (m *Memory) CreateCard(ctx context.Context, card models.StoredCard) (models.StoredCard, error) {
	if err := ctx.Err(); err != nil {
		return models.StoredCard{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.failCard != nil {
		if err := m.failCard(m.creates, card); err != nil {
			return models.StoredCard{}, err
		}
	}
	if _, ok := m.groups[card.GroupID]; !ok {
		return models.StoredCard{}, &StatusError{Op: "create card", Code: 400, Body: "unknown flashcard set " + card.GroupID}
	}
	card.ID = m.id()
	m.cards[card.ID] = card
	m.order = append(m.order, card.ID)
	return card, nil
}

// ListCards returns the cards of a group in creation order.
func (m *Memory) ListCards(ctx context.Context, groupID string) ([]models.StoredCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StoredCard
	for _, id := range m.order {
		if c, ok := m.cards[id]; ok && c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.StoredCard, error) {
	if err := ctx.Err(); err != nil {
		return models.StoredCard{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return models.StoredCard{}, errors.Wrapf(ErrNotFound, "update card %s", id)
	}
	c = patch.Apply(c)
	m.cards[id] = c
	return c, nil
}

func (m *Memory) DeleteCard(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return errors.Wrapf(ErrNotFound, "delete card %s", id)
	}
	delete(m.cards, id)
	for i, cid := range m.order {
		if cid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Groups returns every group created so far.
func (m *Memory) Groups() []models.Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out
}

// CreateCalls is the number of CreateCard calls, failed ones included.
func (m *Memory) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}
