package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/kpauljoseph/cardforge/pkg/logger"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

// DB is satisfied by *pgx.Conn and *pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS flashcard_sets (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL,
	study_set_id TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS flashcards (
	id                      BIGSERIAL PRIMARY KEY,
	flashcard_set_id        BIGINT NOT NULL REFERENCES flashcard_sets (id) ON DELETE CASCADE,
	front                   TEXT NOT NULL,
	back                    TEXT NOT NULL,
	type                    TEXT,
	term_image              TEXT,
	definition_image        TEXT,
	fill_blank_answers      JSONB,
	multiple_choice_options JSONB,
	correct_answer_index    INTEGER,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const cardColumns = `id, flashcard_set_id, front, back, COALESCE(type, ''), term_image, definition_image,
	fill_blank_answers, multiple_choice_options, correct_answer_index`

// Postgres stores groups and cards in two tables; side-channel lists are
// JSONB columns.
type Postgres struct {
	db     DB
	logger *logger.Logger
}

func NewPostgres(db DB, log *logger.Logger) *Postgres {
	if log == nil {
		log = logger.Discard()
	}
	return &Postgres{db: db, logger: log}
}

// ConnectPostgres opens a pool for dbURL. The caller closes the pool.
func ConnectPostgres(ctx context.Context, dbURL string, log *logger.Logger) (*Postgres, *pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, nil, errors.New("db url missing")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "ping postgres")
	}
	return NewPostgres(pool, log), pool, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "ensure schema")
	}
	return nil
}

func (p *Postgres) CreateGroup(ctx context.Context, name, parentID string) (models.Group, error) {
	var (
		id    int64
		group = models.Group{Name: name, ParentID: parentID}
	)
	err := p.db.QueryRow(ctx,
		`INSERT INTO flashcard_sets (name, study_set_id) VALUES ($1, NULLIF($2, '')) RETURNING id, created_at`,
		name, parentID,
	).Scan(&id, &group.CreatedAt)
	if err != nil {
		return models.Group{}, errors.Wrapf(err, "insert flashcard set %q", name)
	}
	group.ID = strconv.FormatInt(id, 10)
	return group, nil
}

func (p *Postgres) CreateCard(ctx context.Context, card models.StoredCard) (models.StoredCard, error) {
	groupID, err := parseID(card.GroupID)
	if err != nil {
		return models.StoredCard{}, errors.Wrap(err, "create card")
	}
	answers, err := jsonParam(card.FillBlankAnswers)
	if err != nil {
		return models.StoredCard{}, errors.Wrap(err, "encode answers")
	}
	options, err := jsonParam(card.MultipleChoiceOptions)
	if err != nil {
		return models.StoredCard{}, errors.Wrap(err, "encode options")
	}

	row := p.db.QueryRow(ctx,
		`INSERT INTO flashcards (flashcard_set_id, front, back, type, term_image, definition_image,
			fill_blank_answers, multiple_choice_options, correct_answer_index)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7::jsonb, $8::jsonb, $9)
		RETURNING `+cardColumns,
		groupID, card.Front, card.Back, string(card.Type), card.TermImage, card.DefinitionImage,
		answers, options, card.CorrectAnswerIndex,
	)
	saved, err := scanCard(row)
	if err != nil {
		return models.StoredCard{}, errors.Wrap(err, "insert flashcard")
	}
	p.logger.Trace("Inserted flashcard %s into set %s", saved.ID, saved.GroupID)
	return saved, nil
}

func (p *Postgres) ListCards(ctx context.Context, groupID string) ([]models.StoredCard, error) {
	id, err := parseID(groupID)
	if err != nil {
		return nil, errors.Wrap(err, "list cards")
	}
	rows, err := p.db.Query(ctx,
		`SELECT `+cardColumns+` FROM flashcards WHERE flashcard_set_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query flashcards")
	}
	defer rows.Close()

	var cards []models.StoredCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan flashcard row")
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return cards, nil
}

func (p *Postgres) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.StoredCard, error) {
	cardID, err := parseID(id)
	if err != nil {
		return models.StoredCard{}, errors.Wrap(err, "update card")
	}
	var answers, options *string
	if patch.FillBlankAnswers != nil {
		if answers, err = jsonParam(*patch.FillBlankAnswers); err != nil {
			return models.StoredCard{}, errors.Wrap(err, "encode answers")
		}
	}
	if patch.MultipleChoiceOptions != nil {
		if options, err = jsonParam(*patch.MultipleChoiceOptions); err != nil {
			return models.StoredCard{}, errors.Wrap(err, "encode options")
		}
	}
	var kind *string
	if patch.Type != nil {
		t := string(*patch.Type)
		kind = &t
	}

	row := p.db.QueryRow(ctx,
		`UPDATE flashcards SET
			front = COALESCE($2, front),
			back = COALESCE($3, back),
			type = COALESCE($4, type),
			term_image = COALESCE($5, term_image),
			definition_image = COALESCE($6, definition_image),
			fill_blank_answers = COALESCE($7::jsonb, fill_blank_answers),
			multiple_choice_options = COALESCE($8::jsonb, multiple_choice_options),
			correct_answer_index = COALESCE($9, correct_answer_index)
		WHERE id = $1
		RETURNING `+cardColumns,
		cardID, patch.Front, patch.Back, kind, patch.TermImage, patch.DefinitionImage,
		answers, options, patch.CorrectAnswerIndex,
	)
	c, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.StoredCard{}, errors.Wrapf(ErrNotFound, "update card %s", id)
	}
	if err != nil {
		return models.StoredCard{}, errors.Wrap(err, "update flashcard")
	}
	return c, nil
}

func (p *Postgres) DeleteCard(ctx context.Context, id string) error {
	cardID, err := parseID(id)
	if err != nil {
		return errors.Wrap(err, "delete card")
	}
	tag, err := p.db.Exec(ctx, `DELETE FROM flashcards WHERE id = $1`, cardID)
	if err != nil {
		return errors.Wrap(err, "delete flashcard")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "delete card %s", id)
	}
	return nil
}

func scanCard(row pgx.Row) (models.StoredCard, error) {
	var (
		c                models.StoredCard
		id, groupID      int64
		kind             string
		answers, options []byte
		correct          *int32
	)
	if err := row.Scan(&id, &groupID, &c.Front, &c.Back, &kind, &c.TermImage, &c.DefinitionImage,
		&answers, &options, &correct); err != nil {
		return models.StoredCard{}, err
	}
	c.ID = strconv.FormatInt(id, 10)
	c.GroupID = strconv.FormatInt(groupID, 10)
	c.Type = models.Kind(kind)
	if correct != nil {
		n := int(*correct)
		c.CorrectAnswerIndex = &n
	}
	if err := unmarshalList(answers, &c.FillBlankAnswers); err != nil {
		return models.StoredCard{}, errors.Wrap(err, "decode fill_blank_answers")
	}
	if err := unmarshalList(options, &c.MultipleChoiceOptions); err != nil {
		return models.StoredCard{}, errors.Wrap(err, "decode multiple_choice_options")
	}
	return c, nil
}

// parseID rejects ids that cannot address a BIGSERIAL row.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrNotFound, "invalid id %q", id)
	}
	return n, nil
}

// jsonParam encodes a list for a ::jsonb parameter; nil lists become NULL.
func jsonParam(list []string) (*string, error) {
	if list == nil {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalList(data []byte, out *[]string) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}
