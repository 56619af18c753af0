package block

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// ArrowIPCName is the name of the default block encoding.
const ArrowIPCName = "ARROW_IPC"

// blockField names the single column of an encoded block.
const blockField = "block"

// ArrowIPC writes a block as an Arrow IPC stream holding one record with a
// single nullable column.
type ArrowIPC struct{}

func (ArrowIPC) Name() string { return ArrowIPCName }

func (ArrowIPC) Encode(buf *bytes.Buffer, a arrow.Array, mem memory.Allocator) error {
	schema := arrow.NewSchema([]arrow.Field{{Name: blockField, Type: a.DataType(), Nullable: true}}, nil)

	rec := array.NewRecord(schema, []arrow.Array{a}, int64(a.Len()))
	defer rec.Release()

	w := ipc.NewWriter(buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "write record")
	}
	return errors.Wrap(w.Close(), "close writer")
}

func (ArrowIPC) Decode(payload []byte, mem memory.Allocator) (arrow.Array, error) {
	r, err := ipc.NewReader(bytes.NewReader(payload), ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, "open stream")
	}
	defer r.Release()

	if r.Schema().NumFields() != 1 {
		return nil, errors.Errorf("expected 1 column, got %d", r.Schema().NumFields())
	}
	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, errors.Wrap(err, "read record")
		}
		return nil, errors.New("stream holds no record")
	}

	col := r.Record().Column(0)
	col.Retain()
	return col, nil
}
