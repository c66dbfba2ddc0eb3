// Package pipeline turns generated content into stored cards, one item at a
// time, reporting progress as it goes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/kpauljoseph/cardforge/internal/blank"
	"github.com/kpauljoseph/cardforge/internal/codec"
	"github.com/kpauljoseph/cardforge/internal/generator"
	"github.com/kpauljoseph/cardforge/internal/material"
	"github.com/kpauljoseph/cardforge/internal/store"
	"github.com/kpauljoseph/cardforge/pkg/logger"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

const (
	DefaultPacing    = 50 * time.Millisecond
	DefaultGroupName = "Generated cards"
)

var (
	ErrNothingRequested = errors.New("pipeline: no cards requested")
	ErrNoMaterials      = errors.New("pipeline: no material source configured")
)

type Request struct {
	Material     material.Ref
	Counts       models.Counts
	GroupID      string
	GroupName    string
	ParentID     string
	TopicContext string
}

// Snapshot is the progress after some number of items. Snapshots are never
// modified after they are sent.
type Snapshot struct {
	GroupID  string
	Cards    []models.Card
	Done     int
	Total    int
	Complete bool
}

type Pipeline struct {
	store     store.RecordStore
	generator generator.ContentGenerator
	materials material.Source
	pacing    time.Duration
	logger    *logger.Logger
}

type Option func(*Pipeline)

// WithPacing sets the delay after each item.
func WithPacing(d time.Duration) Option {
	return func(p *Pipeline) {
		p.pacing = d
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func New(st store.RecordStore, gen generator.ContentGenerator, materials material.Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     st,
		generator: gen,
		materials: materials,
		pacing:    DefaultPacing,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type task struct {
	label   string
	variant models.Variant
}

type job struct {
	groupID string
	tasks   []task
}

// Run prepares the batch and streams progress. Group creation, material
// loading and generation failures are returned before any snapshot is sent.
// The channel receives an initial snapshot, one per item and a final one,
// then closes.
func (p *Pipeline) Run(ctx context.Context, req Request) (<-chan Snapshot, error) {
	j, err := p.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	// Buffered for every snapshot so a reader that walks away never blocks the writer.
	out := make(chan Snapshot, len(j.tasks)+2)
	go p.process(ctx, j, out)
	return out, nil
}

// Collect runs the batch and returns the last snapshot. If ctx is cancelled
// mid-batch the partial snapshot is returned together with ctx.Err().
func (p *Pipeline) Collect(ctx context.Context, req Request) (Snapshot, error) {
	ch, err := p.Run(ctx, req)
	if err != nil {
		return Snapshot{}, err
	}
	var last Snapshot
	for s := range ch {
		last = s
	}
	if !last.Complete {
		return last, context.Cause(ctx)
	}
	return last, nil
}

func (p *Pipeline) prepare(ctx context.Context, req Request) (job, error) {
	counts := req.Counts.Clamp()
	if counts.Total() == 0 {
		return job{}, ErrNothingRequested
	}
	if p.materials == nil {
		return job{}, ErrNoMaterials
	}

	groupID := req.GroupID
	if groupID == "" {
		name := groupName(req)
		group, err := p.store.CreateGroup(ctx, name, req.ParentID)
		if err != nil {
			return job{}, fmt.Errorf("failed to create card group %q: %w", name, err)
		}
		groupID = group.ID
		p.logger.Info("Created card group %q (%s)", group.Name, groupID)
	}

	doc, err := p.materials.Load(ctx, req.Material)
	if err != nil {
		return job{}, fmt.Errorf("failed to load material: %w", err)
	}

	content, err := p.generator.Generate(ctx, doc, counts, req.TopicContext)
	if err != nil {
		return job{}, fmt.Errorf("content generation failed: %w", err)
	}
	p.logger.Info("Generator returned %d of %d requested items", content.Total(), counts.Total())

	return job{groupID: groupID, tasks: p.tasks(content)}, nil
}

// tasks flattens content in persistence order: pairs, fill-blanks, then
// multiple choice, each in generator order.
func (p *Pipeline) tasks(content generator.Content) []task {
	tasks := make([]task, 0, content.Total())
	for i, item := range content.Pair {
		tasks = append(tasks, task{label: fmt.Sprintf("pair #%d", i+1), variant: MapPair(item)})
	}
	for i, item := range content.FillBlank {
		v := MapFillBlank(item)
		if !blank.HasMarker(v.FillBlank.Template) {
			p.logger.Debug("fill-blank #%d has no blank in %q", i+1, v.FillBlank.Template)
		}
		tasks = append(tasks, task{label: fmt.Sprintf("fill-blank #%d", i+1), variant: v})
	}
	for i, item := range content.MultipleChoice {
		tasks = append(tasks, task{label: fmt.Sprintf("multiple-choice #%d", i+1), variant: MapMultipleChoice(item)})
	}
	return tasks
}

func (p *Pipeline) process(ctx context.Context, j job, out chan<- Snapshot) {
	defer close(out)

	total := len(j.tasks)
	var cards []models.Card
	done := 0
	snapshot := func(complete bool) Snapshot {
		return Snapshot{
			GroupID:  j.groupID,
			Cards:    cards[:len(cards):len(cards)],
			Done:     done,
			Total:    total,
			Complete: complete,
		}
	}

	out <- snapshot(false)
	for _, t := range j.tasks {
		if ctx.Err() != nil {
			p.logger.Info("Generation stopped after %d of %d items", done, total)
			return
		}

		if card, err := p.persist(ctx, j.groupID, t); err != nil {
			p.logger.Error("Failed to save %s: %v", t.label, err)
		} else {
			cards = append(cards, card)
		}
		done++
		out <- snapshot(false)

		if !p.pause(ctx) && done < total {
			p.logger.Info("Generation stopped after %d of %d items", done, total)
			return
		}
	}
	p.logger.Info("Saved %d of %d generated cards", len(cards), total)
	out <- snapshot(true)
}

// persist writes one card. The write runs to completion even if ctx is
// cancelled while it is in flight.
func (p *Pipeline) persist(ctx context.Context, groupID string, t task) (models.Card, error) {
	stored, err := codec.Encode(t.variant, codec.Target{GroupID: groupID})
	if err != nil {
		return models.Card{}, err
	}
	saved, err := p.store.CreateCard(context.WithoutCancel(ctx), stored)
	if err != nil {
		return models.Card{}, err
	}
	p.logger.Debug("Saved %s as card %s", t.label, saved.ID)
	return codec.DecodeCard(saved), nil
}

func (p *Pipeline) pause(ctx context.Context) bool {
	if p.pacing <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(p.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func groupName(req Request) string {
	if name := strings.TrimSpace(req.GroupName); name != "" {
		return name
	}
	if base := path.Base(req.Material.Name); base != "." && base != "/" && base != "" {
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return DefaultGroupName
}
