package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangesChannel carries "collection/id" payloads for every write to the documents table.
const ChangesChannel = "docstore_changes"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);

CREATE OR REPLACE FUNCTION docstore_notify() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'DELETE' THEN
		PERFORM pg_notify('docstore_changes', OLD.collection || '/' || OLD.id);
		RETURN OLD;
	END IF;
	PERFORM pg_notify('docstore_changes', NEW.collection || '/' || NEW.id);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS documents_notify ON documents;
CREATE TRIGGER documents_notify AFTER INSERT OR UPDATE OR DELETE ON documents
	FOR EACH ROW EXECUTE FUNCTION docstore_notify();
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string, out any) error {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (s *PostgresStore) Find(ctx context.Context, collection string, filter Filter) ([]Snapshot, error) {
	match, err := jsonFilter(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, body FROM documents WHERE collection = $1 AND body @> $2::jsonb ORDER BY id`,
		collection, match,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, jsonSnapshot(id, body))
	}
	return snapshots, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	match, err := jsonFilter(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1 AND body @> $2::jsonb`,
		collection, match,
	).Scan(&n)
	return n, err
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`,
		collection, id, body,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s/%s", domain.ErrConflict, collection, id)
	}
	return err
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		collection, id, body,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s/%s", domain.ErrConflict, collection, id)
	}
	return err
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET body = body || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, patch,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return err
}

// Watch holds one pooled connection in LISTEN mode for the lifetime of the subscription.
func (s *PostgresStore) Watch(ctx context.Context, collection, id string) (<-chan Snapshot, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", ChangesChannel, err)
	}

	key := collection + "/" + id
	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer func() {
			_, _ = conn.Exec(context.Background(), "UNLISTEN "+ChangesChannel)
			conn.Release()
		}()

		if !send(ctx, out, s.snapshot(ctx, collection, id)) {
			return
		}
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					send(ctx, out, Failed(id, err))
				}
				return
			}
			if n.Payload != key {
				continue
			}
			if !send(ctx, out, s.snapshot(ctx, collection, id)) {
				return
			}
		}
	}()
	return out, nil
}

func (s *PostgresStore) snapshot(ctx context.Context, collection, id string) Snapshot {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Missing(id)
	case err != nil:
		return Failed(id, err)
	}
	return jsonSnapshot(id, body)
}

func (s *PostgresStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if err := checkIdentifier("collection", collection); err != nil {
		return err
	}
	if err := checkIdentifier("field", field); err != nil {
		return err
	}
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	name := strings.ToLower(fmt.Sprintf("documents_%s_%s_idx", collection, field))
	stmt := fmt.Sprintf(
		`CREATE %s IF NOT EXISTS %s ON documents ((body->>'%s')) WHERE collection = '%s'`,
		kind, name, field, collection,
	)
	_, err := s.pool.Exec(ctx, stmt)
	return err
}

func jsonFilter(filter Filter) ([]byte, error) {
	if filter == nil {
		return []byte("{}"), nil
	}
	match, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return match, nil
}

func jsonSnapshot(id string, body []byte) Snapshot {
	return NewSnapshot(id, func(out any) error {
		return json.Unmarshal(body, out)
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Store = (*PostgresStore)(nil)
