package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jackc/pgx/v5"

	"notifier/internal/notify"
)

// Fixture is a set of documents keyed by id, in the same JSON shape the
// documents have on the events topic.
type Fixture struct {
	Users map[string]notify.User `json:"users"`
	Posts map[string]notify.Post `json:"posts"`
}

// ReadFixture decodes a fixture from r
func ReadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

const (
	upsertUser = `
		INSERT INTO users (uid, name, fcm_tokens) VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO UPDATE SET name = EXCLUDED.name, fcm_tokens = EXCLUDED.fcm_tokens
	`
	upsertPost = `
		INSERT INTO posts (post_id, uid, post_text, image_key, likes) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (post_id) DO UPDATE SET uid = EXCLUDED.uid, post_text = EXCLUDED.post_text,
			image_key = EXCLUDED.image_key, likes = EXCLUDED.likes
	`
)

// Seed upserts every fixture document in one batch round-trip.
// It is a development aid; the notifier itself never writes documents.
func (r *Repository) Seed(ctx context.Context, f *Fixture) (int, error) {
	batch := &pgx.Batch{}

	for _, id := range sortedKeys(f.Users) {
		u := f.Users[id]
		batch.Queue(upsertUser, id, u.Name, nonNil(u.Tokens))
	}
	for _, id := range sortedKeys(f.Posts) {
		p := f.Posts[id]
		batch.Queue(upsertPost, id, p.OwnerID, p.Text, p.ImageKey, nonNil(p.Likes))
	}

	pending := batch.Len()
	if pending == 0 {
		return 0, nil
	}

	br := r.db.SendBatch(ctx, batch)
	for i := 0; i < pending; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return i, fmt.Errorf("seed exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return pending, fmt.Errorf("seed close: %w", err)
	}
	return pending, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// nonNil keeps NOT NULL array columns from receiving NULL
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
