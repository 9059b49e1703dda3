// Package history persists runs: the storyline a topic produced and the
// artifact resolved for each of its entries.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/slide"
	"github.com/teranos/slideinspo/storyline"
)

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 20

// Run is a stored run. Items is only filled by Get.
type Run struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	Mode        pipeline.Mode   `json:"mode"`
	SlideCount  int             `json:"slide_count"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Items       []pipeline.Item `json:"items,omitempty"`
}

// Store reads and writes runs and run_items
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a store over an already migrated database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// StartRun records a new run for s and returns its ID. Entries are stored as
// pending items until SaveBatch fills them in.
func (s *Store) StartRun(ctx context.Context, sl *storyline.Storyline, mode pipeline.Mode) (string, error) {
	if sl.Len() == 0 {
		return "", errors.NewInvalidRequestError("cannot record an empty storyline")
	}
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, topic, mode, slide_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sl.Topic, string(mode), sl.Len(), s.now().UTC(),
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to insert run")
	}

	for i, e := range sl.Entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_items (run_id, position, label, storypoint, status, artifact_kind)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, e.Label, e.Storypoint, "pending", string(artifact.KindMissing),
		)
		if err != nil {
			return "", errors.Wrapf(err, "failed to insert run item %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "failed to commit run")
	}
	return id, nil
}

// SaveBatch replaces the items of run id with the batch results and marks
// the run complete
func (s *Store) SaveBatch(ctx context.Context, id string, b *pipeline.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET mode = ?, slide_count = ?, completed_at = ? WHERE id = ?`,
		string(b.Mode), b.Len(), s.now().UTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_items WHERE run_id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to clear run items")
	}

	for _, item := range b.Items {
		var slideID, content, errMsg *string
		if item.Slide != nil {
			v := item.Slide.String()
			slideID = &v
		}
		if c := artifactContent(item.Artifact); c != "" {
			content = &c
		}
		if item.Error != "" {
			errMsg = &item.Error
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_items (run_id, position, label, storypoint, status, slide_id, artifact_kind, artifact, error_message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, item.Index, item.Label, item.Storypoint, string(item.Status),
			slideID, string(item.Artifact.Kind), content, errMsg,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to insert run item %d", item.Index)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit batch")
	}
	return nil
}

// List returns the most recent runs, newest first, without items
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, mode, slide_count, created_at, completed_at
		 FROM runs ORDER BY created_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns run id with its items in position order
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, mode, slide_count, created_at, completed_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(errors.ErrNotFound, "run %s", id)
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, label, storypoint, status, slide_id, artifact_kind, artifact, error_message
		 FROM run_items WHERE run_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query run items")
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		run.Items = append(run.Items, item)
	}
	return run, rows.Err()
}

// Delete removes a run and its items
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var mode string
	var completed sql.NullTime
	if err := sc.Scan(&run.ID, &run.Topic, &mode, &run.SlideCount, &run.CreatedAt, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan run")
	}
	run.Mode = pipeline.Mode(mode)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func scanItem(sc scanner) (pipeline.Item, error) {
	var item pipeline.Item
	var status, kind string
	var slideID, content, errMsg sql.NullString
	if err := sc.Scan(&item.Index, &item.Label, &item.Storypoint, &status, &slideID, &kind, &content, &errMsg); err != nil {
		return item, errors.Wrap(err, "failed to scan run item")
	}
	item.Status = pipeline.Status(status)
	item.Error = errMsg.String
	item.Artifact = artifact.Artifact{Kind: artifact.Kind(kind)}
	switch item.Artifact.Kind {
	case artifact.KindImage:
		item.Artifact.Path = content.String
	case artifact.KindMarkup:
		item.Artifact.Markup = content.String
	}
	if slideID.Valid {
		if id, err := slide.Parse(slideID.String); err == nil {
			item.Slide = &id
		}
	}
	return item, nil
}

func artifactContent(a artifact.Artifact) string {
	switch a.Kind {
	case artifact.KindImage:
		return a.Path
	case artifact.KindMarkup:
		return a.Markup
	default:
		return ""
	}
}
