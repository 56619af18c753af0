// Package block serializes columnar blocks into self-describing byte strings.
//
// A serialized block is
//
//	[uvarint len(name)][name][payload]
//
// where name selects the Encoding that produced payload. Readers only need
// the named encoding to be registered; writers always use the default one.
package block

import (
	"bytes"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// maxNameLength bounds encoding names in the header.
const maxNameLength = 256

// Encoding writes and reads the payload of one block.
type Encoding interface {
	Name() string
	Encode(buf *bytes.Buffer, a arrow.Array, mem memory.Allocator) error
	Decode(payload []byte, mem memory.Allocator) (arrow.Array, error)
}

// Serde is a registry of block encodings. It is safe for concurrent use.
type Serde struct {
	mem memory.Allocator

	mu        sync.RWMutex
	encodings map[string]Encoding
	def       string
}

// Option configures a Serde.
type Option func(*Serde)

// WithAllocator sets the allocator used for IPC buffers and decoded arrays.
func WithAllocator(mem memory.Allocator) Option {
	return func(s *Serde) {
		s.mem = mem
	}
}

// NewSerde returns a Serde with the ARROW_IPC encoding registered as default.
func NewSerde(opts ...Option) *Serde {
	s := &Serde{
		mem:       memory.DefaultAllocator,
		encodings: make(map[string]Encoding),
	}
	for _, opt := range opts {
		opt(s)
	}

	ipcEnc := ArrowIPC{}
	s.encodings[ipcEnc.Name()] = ipcEnc
	s.def = ipcEnc.Name()
	return s
}

// Register adds an encoding. Names must be unique.
func (s *Serde) Register(e Encoding) error {
	name := e.Name()
	if name == "" || len(name) > maxNameLength {
		return errors.Errorf("invalid block encoding name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.encodings[name]; ok {
		return errors.Errorf("block encoding %q already registered", name)
	}
	s.encodings[name] = e
	return nil
}

// SetDefault selects the encoding used by WriteBlock.
func (s *Serde) SetDefault(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.encodings[name]; !ok {
		return errors.Errorf("unknown block encoding %q", name)
	}
	s.def = name
	return nil
}

// Encodings lists the registered encoding names in sorted order.
func (s *Serde) Encodings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.encodings))
	for name := range s.encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteBlock serializes a with the default encoding.
func (s *Serde) WriteBlock(a arrow.Array) ([]byte, error) {
	if a == nil {
		return nil, errors.New("nil block")
	}

	s.mu.RLock()
	enc := s.encodings[s.def]
	s.mu.RUnlock()

	var buf bytes.Buffer
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(enc.Name())))
	buf.Write(hdr[:n])
	buf.WriteString(enc.Name())

	if err := enc.Encode(&buf, a, s.mem); err != nil {
		return nil, errors.Wrapf(err, "encode block with %s", enc.Name())
	}
	return buf.Bytes(), nil
}

// ReadBlock is the inverse of WriteBlock. The caller owns the returned array
// and must Release it.
func (s *Serde) ReadBlock(data []byte) (arrow.Array, error) {
	nameLen, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errors.New("truncated block header")
	}
	if nameLen == 0 || nameLen > maxNameLength || uint64(len(data)-n) < nameLen {
		return nil, errors.Errorf("invalid block encoding name length %d", nameLen)
	}
	name := string(data[n : n+int(nameLen)])
	payload := data[n+int(nameLen):]

	s.mu.RLock()
	enc, ok := s.encodings[name]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown block encoding %q", name)
	}

	a, err := enc.Decode(payload, s.mem)
	if err != nil {
		return nil, errors.Wrapf(err, "decode block with %s", name)
	}
	return a, nil
}
