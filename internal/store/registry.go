package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/roach88/litenc/internal/expr"
	"github.com/roach88/litenc/internal/function"
	"github.com/roach88/litenc/internal/types"
)

// ConflictError reports a registration that disagrees with the stored
// signature of the same name.
type ConflictError struct {
	Name     string
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("function %s already registered as %s, got %s", e.Name, e.Existing, e.Incoming)
}

// RegisterSignature records sig under its qualified name. It reports whether
// a new row was written; re-registering an identical signature is a no-op.
func (s *Store) RegisterSignature(ctx context.Context, sig function.Signature) (inserted bool, err error) {
	row, err := encodeSignature(sig)
	if err != nil {
		return false, fmt.Errorf("register signature: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("register signature: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existing signatureRow
	err = tx.QueryRowContext(ctx, `
		SELECT name, kind, return_type, argument_types
		FROM literal_functions
		WHERE name = ?
	`, row.name).Scan(&existing.name, &existing.kind, &existing.returnType, &existing.argumentTypes)
	switch {
	case err == nil:
		if existing != row {
			return false, &ConflictError{Name: row.name, Existing: existing.display(), Incoming: row.display()}
		}
		return false, nil
	case err != sql.ErrNoRows:
		return false, fmt.Errorf("register signature: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO literal_functions (name, kind, return_type, argument_types)
		VALUES (?, ?, ?, ?)
	`, row.name, row.kind, row.returnType, row.argumentTypes)
	if err != nil {
		return false, fmt.Errorf("register signature: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("register signature: commit: %w", err)
	}

	level.Debug(s.logger).Log("msg", "registered literal function", "name", row.name, "signature", sig.String())
	return true, nil
}

// Signature returns the signature registered under the qualified name.
// Types are resolved through r. Returns ErrNotFound if nothing is registered.
func (s *Store) Signature(ctx context.Context, name function.QualifiedName, r expr.Resolver) (function.Signature, error) {
	var row signatureRow
	err := s.db.QueryRowContext(ctx, `
		SELECT name, kind, return_type, argument_types
		FROM literal_functions
		WHERE name = ?
	`, name.String()).Scan(&row.name, &row.kind, &row.returnType, &row.argumentTypes)
	if err == sql.ErrNoRows {
		return function.Signature{}, fmt.Errorf("signature %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return function.Signature{}, fmt.Errorf("read signature %s: %w", name, err)
	}
	return row.decode(r)
}

// ListSignatures returns every registered signature ordered by qualified
// name. Returns an empty slice (not nil) for an empty registry.
func (s *Store) ListSignatures(ctx context.Context, r expr.Resolver) ([]function.Signature, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, return_type, argument_types
		FROM literal_functions
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	sigs := []function.Signature{}
	for rows.Next() {
		var row signatureRow
		if err := rows.Scan(&row.name, &row.kind, &row.returnType, &row.argumentTypes); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		sig, err := row.decode(r)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return sigs, nil
}

// signatureRow is the stored form of a function.Signature.
type signatureRow struct {
	name          string
	kind          string
	returnType    string
	argumentTypes string
}

func (r signatureRow) display() string {
	var args []string
	_ = json.Unmarshal([]byte(r.argumentTypes), &args)
	return "(" + strings.Join(args, ",") + "):" + r.returnType
}

func encodeSignature(sig function.Signature) (signatureRow, error) {
	if sig.Name.Object == "" {
		return signatureRow{}, fmt.Errorf("signature without a name")
	}
	if sig.ReturnType == nil {
		return signatureRow{}, fmt.Errorf("signature %s without a return type", sig.Name)
	}
	kind := sig.Kind
	if kind == "" {
		kind = function.KindScalar
	}

	args := make([]any, len(sig.ArgumentTypes))
	for i, t := range sig.ArgumentTypes {
		if t == nil {
			return signatureRow{}, fmt.Errorf("signature %s: argument %d has no type", sig.Name, i)
		}
		args[i] = t.String()
	}
	argumentTypes, err := expr.MarshalCanonical(args)
	if err != nil {
		return signatureRow{}, err
	}

	return signatureRow{
		name:          sig.Name.String(),
		kind:          string(kind),
		returnType:    sig.ReturnType.String(),
		argumentTypes: string(argumentTypes),
	}, nil
}

func (r signatureRow) decode(res expr.Resolver) (function.Signature, error) {
	name, err := parseQualifiedName(r.name)
	if err != nil {
		return function.Signature{}, err
	}

	ret, err := res.Type(r.returnType)
	if err != nil {
		return function.Signature{}, fmt.Errorf("signature %s: return type: %w", r.name, err)
	}

	var sigs []string
	if err := json.Unmarshal([]byte(r.argumentTypes), &sigs); err != nil {
		return function.Signature{}, fmt.Errorf("signature %s: argument types: %w", r.name, err)
	}
	args := make([]types.Type, len(sigs))
	for i, sig := range sigs {
		if args[i], err = res.Type(sig); err != nil {
			return function.Signature{}, fmt.Errorf("signature %s: argument %d: %w", r.name, i, err)
		}
	}

	return function.NewSignature(name, function.Kind(r.kind), ret, args...), nil
}

// parseQualifiedName splits catalog.schema.object. Dots after the second
// belong to the object.
func parseQualifiedName(s string) (function.QualifiedName, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return function.QualifiedName{}, fmt.Errorf("malformed qualified name %q", s)
	}
	return function.QualifiedName{Catalog: parts[0], Schema: parts[1], Object: parts[2]}, nil
}
