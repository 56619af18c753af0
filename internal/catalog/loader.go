package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/pkg/errors"

	"github.com/roach88/litenc/internal/types"
)

// LoadError reports an invalid extension type declaration.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir registers the extension types declared in the CUE package in dir:
//
//	extension: hyperloglog: native: "bytes"
//	extension: color: native: "int64"
//	extension: "interval day to second": native: "int64"
//
// Declarations are registered in label order.
func (c *Catalog) LoadDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(err, "catalog directory")
	}
	if !info.IsDir() {
		return errors.Errorf("not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return errors.Wrap(err, "scan catalog directory")
	}
	if len(matches) == 0 {
		return errors.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return errors.New("no CUE instances loaded")
	}
	if err := instances[0].Err; err != nil {
		return formatCUEError(err)
	}

	v := ctx.BuildInstance(instances[0])
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}

	decls, err := CompileTypes(v)
	if err != nil {
		return err
	}
	for _, t := range decls {
		if err := c.Register(t); err != nil {
			return errors.Wrapf(err, "load %s", dir)
		}
	}
	return nil
}

// CompileTypes extracts the extension type declarations under the
// "extension" field of v.
func CompileTypes(v cue.Value) ([]types.OpaqueType, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	typesVal := v.LookupPath(cue.ParsePath("extension"))
	if !typesVal.Exists() {
		return nil, &LoadError{Field: "extension", Message: "no extension types declared", Pos: v.Pos()}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []types.OpaqueType
	for iter.Next() {
		t, err := compileType(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func compileType(name string, v cue.Value) (types.OpaqueType, error) {
	nativeVal := v.LookupPath(cue.ParsePath("native"))
	if !nativeVal.Exists() {
		return types.OpaqueType{}, &LoadError{
			Field:   "extension." + name + ".native",
			Message: "native is required",
			Pos:     v.Pos(),
		}
	}
	s, err := nativeVal.String()
	if err != nil {
		return types.OpaqueType{}, formatCUEError(err)
	}
	kind, err := types.ParseNativeKind(s)
	if err != nil {
		return types.OpaqueType{}, &LoadError{
			Field:   "extension." + name + ".native",
			Message: err.Error(),
			Pos:     nativeVal.Pos(),
		}
	}
	return types.OpaqueType{Name: name, Rep: kind}, nil
}

// formatCUEError keeps the position of the first CUE error.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
