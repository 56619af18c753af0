package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/roach88/litenc/internal/expr"
)

// Fragment is a stored list of encoded expressions.
type Fragment struct {
	ID          string
	Fingerprint string
	Expressions []expr.Expression
}

// FragmentInfo describes a fragment without decoding its expressions.
type FragmentInfo struct {
	ID          string
	Fingerprint string
	Size        int
}

// IDGenerator mints fragment ids.
type IDGenerator interface {
	Generate() (string, error)
}

// UUIDv7Generator mints time-ordered UUIDv7 ids.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() (string, error) {
	id, err := s.ids.Generate()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// WriteFragment appends es to the log under a freshly generated id. The functions
// the expressions call are indexed for FragmentsUsing.
func (s *Store) WriteFragment(ctx context.Context, es []expr.Expression) (Fragment, error) {
	data, err := expr.MarshalList(es)
	if err != nil {
		return Fragment{}, fmt.Errorf("write fragment: %w", err)
	}
	fingerprint, err := expr.FragmentFingerprint(es)
	if err != nil {
		return Fragment{}, fmt.Errorf("write fragment: %w", err)
	}
	id, err := s.ids.Generate()
	if err != nil {
		return Fragment{}, fmt.Errorf("write fragment: generate id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Fragment{}, fmt.Errorf("write fragment: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fragments (id, fingerprint, expressions, size)
		VALUES (?, ?, ?, ?)
	`, id, fingerprint, string(data), len(es))
	if err != nil {
		return Fragment{}, fmt.Errorf("write fragment: %w", err)
	}

	for _, name := range calledFunctions(es) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fragment_functions (fragment_id, function)
			VALUES (?, ?)
		`, id, name)
		if err != nil {
			return Fragment{}, fmt.Errorf("write fragment: index %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Fragment{}, fmt.Errorf("write fragment: commit: %w", err)
	}

	level.Debug(s.logger).Log("msg", "wrote fragment", "id", id, "fingerprint", fingerprint, "size", len(es))
	return Fragment{ID: id, Fingerprint: fingerprint, Expressions: es}, nil
}

// ReadFragment decodes the fragment with the given id, resolving types
// through r. Returns ErrNotFound if the id is unknown.
func (s *Store) ReadFragment(ctx context.Context, id string, r expr.Resolver) (Fragment, error) {
	var f Fragment
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, expressions
		FROM fragments
		WHERE id = ?
	`, id).Scan(&f.ID, &f.Fingerprint, &data)
	if err == sql.ErrNoRows {
		return Fragment{}, fmt.Errorf("fragment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Fragment{}, fmt.Errorf("read fragment %s: %w", id, err)
	}

	f.Expressions, err = expr.UnmarshalList([]byte(data), r)
	if err != nil {
		return Fragment{}, fmt.Errorf("read fragment %s: %w", id, err)
	}
	return f, nil
}

// ListFragments returns every fragment in creation order.
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListFragments(ctx context.Context) ([]FragmentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fingerprint, size
		FROM fragments
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query fragments: %w", err)
	}
	defer rows.Close()

	infos := []FragmentInfo{}
	for rows.Next() {
		var info FragmentInfo
		if err := rows.Scan(&info.ID, &info.Fingerprint, &info.Size); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}
	return infos, nil
}

// FragmentsByFingerprint returns the ids of fragments with the given
// content fingerprint, oldest first.
func (s *Store) FragmentsByFingerprint(ctx context.Context, fingerprint string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT id FROM fragments
		WHERE fingerprint = ?
		ORDER BY id COLLATE BINARY ASC
	`, fingerprint)
}

// FragmentsUsing returns the ids of fragments that call the named function,
// oldest first.
func (s *Store) FragmentsUsing(ctx context.Context, function string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT fragment_id FROM fragment_functions
		WHERE function = ?
		ORDER BY fragment_id COLLATE BINARY ASC
	`, function)
}

func (s *Store) queryIDs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query fragment ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan fragment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragment ids: %w", err)
	}
	return ids, nil
}

// calledFunctions returns the distinct function names called anywhere in es,
// sorted.
func calledFunctions(es []expr.Expression) []string {
	seen := make(map[string]bool)
	for _, e := range es {
		expr.Inspect(e, func(n expr.Expression) bool {
			if call, ok := n.(*expr.FunctionCall); ok {
				seen[call.Name] = true
			}
			return true
		})
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
