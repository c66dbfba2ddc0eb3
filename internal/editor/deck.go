// Package editor holds cards that are being authored before and after they
// are persisted.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/kpauljoseph/cardforge/internal/codec"
	"github.com/kpauljoseph/cardforge/internal/store"
	"github.com/kpauljoseph/cardforge/internal/validate"
	"github.com/kpauljoseph/cardforge/pkg/logger"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

var ErrUnknownDraft = errors.New("editor: no draft with that id")

// Draft is a card in an editing session. LocalID is stable for the session;
// StorageID is empty until the card is saved.
type Draft struct {
	LocalID   string
	StorageID string
	Variant   models.Variant
}

func (d Draft) Saved() bool {
	return d.StorageID != ""
}

type entry struct {
	draft Draft
	// persisted is the variant as last written; nil while unsaved.
	persisted *models.Variant
}

func (e *entry) dirty() bool {
	return e.persisted != nil && !cmp.Equal(*e.persisted, e.draft.Variant)
}

// Deck is an ordered editing session. Changes stay local until Save.
type Deck struct {
	entries []*entry
	removed []string
	logger  *logger.Logger
}

func NewDeck(log *logger.Logger) *Deck {
	if log == nil {
		log = logger.Discard()
	}
	return &Deck{logger: log}
}

// LoadDeck starts a session from cards that are already stored.
func LoadDeck(cards []models.Card, log *logger.Logger) *Deck {
	d := NewDeck(log)
	for _, c := range cards {
		v := c.Variant
		d.entries = append(d.entries, &entry{
			draft:     Draft{LocalID: uuid.NewString(), StorageID: c.ID, Variant: v},
			persisted: &v,
		})
	}
	return d
}

func (d *Deck) Add(v models.Variant) Draft {
	e := &entry{draft: Draft{LocalID: uuid.NewString(), Variant: v}}
	d.entries = append(d.entries, e)
	return e.draft
}

// Edit replaces the variant of a draft. Saved drafts are written back on the
// next Save.
func (d *Deck) Edit(localID string, v models.Variant) error {
	e := d.find(localID)
	if e == nil {
		return fmt.Errorf("edit %s: %w", localID, ErrUnknownDraft)
	}
	e.draft.Variant = v
	return nil
}

// Remove drops a draft. Saved drafts are deleted from the store on the next
// Save.
func (d *Deck) Remove(localID string) error {
	i := d.index(localID)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", localID, ErrUnknownDraft)
	}
	if id := d.entries[i].draft.StorageID; id != "" {
		d.removed = append(d.removed, id)
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return nil
}

func (d *Deck) Move(dragged, target string) {
	moved := MoveBefore(d.Drafts(), dragged, target)
	byID := make(map[string]*entry, len(d.entries))
	for _, e := range d.entries {
		byID[e.draft.LocalID] = e
	}
	for i, draft := range moved {
		d.entries[i] = byID[draft.LocalID]
	}
}

func (d *Deck) Drafts() []Draft {
	out := make([]Draft, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.draft
	}
	return out
}

func (d *Deck) Len() int {
	return len(d.entries)
}

// Pending counts the writes the next Save would issue.
type Pending struct {
	Create int
	Update int
	Delete int
}

func (p Pending) Empty() bool {
	return p == Pending{}
}

func (d *Deck) Pending() Pending {
	p := Pending{Delete: len(d.removed)}
	for _, e := range d.entries {
		switch {
		case e.persisted == nil:
			p.Create++
		case e.dirty():
			p.Update++
		}
	}
	return p
}

// Save validates every new or edited draft and then writes creates, updates and deletes in
// that order, one at a time. Nothing is sent when validation fails. The first
// store error stops the save; writes that succeeded before it are kept.
func (d *Deck) Save(ctx context.Context, st store.RecordStore, groupID string) (Pending, error) {
	prepared := make([]models.Variant, len(d.entries))
	var errs []error
	for i, e := range d.entries {
		if e.persisted != nil && !e.dirty() {
			prepared[i] = e.draft.Variant
			continue
		}
		v, err := Sanitize(e.draft.Variant)
		if err == nil {
			err = validate.Variant(v)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("card %d: %w", i+1, err))
			continue
		}
		prepared[i] = v
	}
	if err := errors.Join(errs...); err != nil {
		return Pending{}, err
	}

	var done Pending
	for i, e := range d.entries {
		if e.persisted != nil {
			continue
		}
		stored, err := codec.Encode(prepared[i], codec.Target{GroupID: groupID})
		if err != nil {
			return done, fmt.Errorf("card %d: %w", i+1, err)
		}
		saved, err := st.CreateCard(ctx, stored)
		if err != nil {
			return done, fmt.Errorf("failed to create card %d: %w", i+1, err)
		}
		e.markSaved(saved.ID, prepared[i])
		done.Create++
		d.logger.Debug("Created card %s", saved.ID)
	}

	for i, e := range d.entries {
		if e.persisted == nil {
			continue
		}
		e.draft.Variant = prepared[i]
		if !e.dirty() {
			continue
		}
		stored, err := codec.Encode(prepared[i], codec.Target{CardID: e.draft.StorageID, GroupID: groupID})
		if err != nil {
			return done, fmt.Errorf("card %d: %w", i+1, err)
		}
		if _, err := st.UpdateCard(ctx, e.draft.StorageID, models.PatchFrom(stored)); err != nil {
			return done, fmt.Errorf("failed to update card %s: %w", e.draft.StorageID, err)
		}
		e.markSaved(e.draft.StorageID, prepared[i])
		done.Update++
		d.logger.Debug("Updated card %s", e.draft.StorageID)
	}

	for len(d.removed) > 0 {
		id := d.removed[0]
		if err := st.DeleteCard(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return done, fmt.Errorf("failed to delete card %s: %w", id, err)
		}
		d.removed = d.removed[1:]
		done.Delete++
		d.logger.Debug("Deleted card %s", id)
	}

	return done, nil
}

func (e *entry) markSaved(id string, v models.Variant) {
	e.draft.StorageID = id
	e.draft.Variant = v
	saved := v
	e.persisted = &saved
}

func (d *Deck) find(localID string) *entry {
	if i := d.index(localID); i >= 0 {
		return d.entries[i]
	}
	return nil
}

func (d *Deck) index(localID string) int {
	for i, e := range d.entries {
		if e.draft.LocalID == localID {
			return i
		}
	}
	return -1
}

// Sanitize cleans the author-entered prose of v and dedups fill-in answers.
// Options and answers are compared verbatim while studying, so their text is
// left untouched.
func Sanitize(v models.Variant) (models.Variant, error) {
	var errs []error
	clean := func(field string, s *string) {
		if strings.TrimSpace(*s) == "" {
			return
		}
		out, err := validate.Text(*s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*s = out
	}

	switch v.Kind() {
	case models.KindPair:
		p := *v.Pair
		clean("term", &p.Term)
		clean("definition", &p.Definition)
		v.Pair = &p
	case models.KindFillBlank:
		f := *v.FillBlank
		clean("template", &f.Template)
		f.Answers = validate.Answers(f.Answers)
		v.FillBlank = &f
	case models.KindMultipleChoice:
		m := *v.MultipleChoice
		clean("prompt", &m.Prompt)
		v.MultipleChoice = &m
	}
	return v, errors.Join(errs...)
}
