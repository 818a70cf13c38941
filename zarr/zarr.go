// Package zarr reads and writes chunked N-D arrays laid out in the zarr v2
// storage format, and exposes them as datasets whose tiles are chunks.
package zarr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/probonopd/LiberTEM/nd"
)

const (
	// Version is the storage specification version written by this package.
	Version = 2
)

var (
	ErrUnsupported = errors.New("unsupported zarr feature")
	ErrReadOnly    = errors.New("array opened read only")
	ErrExists      = errors.New("array already exists")
)

type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
	dtype nd.Dtype
}

// Create writes m to the store under path and returns the empty array.
// Existing metadata at path is overwritten.
func Create(store Store, path string, m *ArrayMeta) (*Array, error) {
	return New(store, path, ModeWrite, m)
}

// Open opens the existing array at path. Its metadata is read from
// path/.zarray, or from the consolidated .zmetadata at the store root when
// that key is missing.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	return New(store, path, mode, nil)
}

// New opens or creates the array at path according to mode. ModeRead and
// ModeReadWrite require an existing array; ModeReadWriteCreate opens it or
// creates it from m; ModeWrite creates it from m, replacing any existing
// metadata; ModeWriteFail creates it and fails with ErrExists if it is
// already there.
func New(store Store, path string, mode PersistenceMode, m *ArrayMeta) (*Array, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeRead, ModeReadWrite, ModeReadWriteCreate, ModeWriteFail:
		existing, err := readArrayMeta(store, p)
		switch {
		case err == nil && mode == ModeWriteFail:
			return nil, fmt.Errorf("%w: %q", ErrExists, p.String())
		case err == nil:
			return newArray(store, p, mode, existing)
		case !errors.Is(err, ErrNotfound):
			return nil, err
		case mode == ModeRead || mode == ModeReadWrite:
			return nil, fmt.Errorf("opening array %q: %w", p.String(), err)
		}
	case ModeWrite:
	default:
		return nil, fmt.Errorf("%w: persistence mode %q", ErrUnsupported, mode)
	}

	if m == nil {
		return nil, fmt.Errorf("creating array %q: no metadata given", p.String())
	}
	if m.ZarrFormat == 0 {
		m.ZarrFormat = Version
	}
	if m.Order == "" {
		m.Order = "C"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := putMeta(store, p.Join(string(m.MetaType())).String(), m); err != nil {
		return nil, fmt.Errorf("writing array metadata: %w", err)
	}
	return newArray(store, p, mode, m)
}

func readArrayMeta(store Store, p Path) (*ArrayMeta, error) {
	v, err := lookup(store, p.Join(string(MTArray)).String())
	if err != nil {
		return nil, err
	}
	meta := v.(*ArrayMeta)
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

// lookup reads the metadata document stored under key. A missing key is
// looked up in the consolidated .zmetadata at the store root before
// ErrNotfound is returned.
func lookup(store Store, key string) (MetaTyper, error) {
	mt, ok := KeyMetaType(key)
	if !ok {
		return nil, fmt.Errorf("invalid metadata key %q", key)
	}
	f, err := store.Get(key)
	if err == nil {
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		v, err := decodeMeta(mt, data)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", key, err)
		}
		return v, nil
	}
	if !errors.Is(err, ErrNotfound) {
		return nil, err
	}

	cm, cerr := readConsolidated(store)
	if errors.Is(cerr, ErrNotfound) {
		return nil, err
	}
	if cerr != nil {
		return nil, cerr
	}
	if v, ok := cm.Metadata[key]; ok {
		return v, nil
	}
	return nil, err
}

func readConsolidated(store Store) (*ConsolidatedMetadata, error) {
	f, err := store.Get(string(MTMetadata))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cm := &ConsolidatedMetadata{}
	if err := json.NewDecoder(f).Decode(cm); err != nil {
		return nil, fmt.Errorf("reading consolidated metadata: %w", err)
	}
	return cm, nil
}

// Consolidate writes a root group and a .zmetadata document holding the
// metadata and attributes of the arrays at paths, so that readers need a
// single metadata read for the whole store.
func Consolidate(store Store, paths ...string) error {
	root := Group{ZarrFormat: Version}
	if err := putMeta(store, string(root.MetaType()), root); err != nil {
		return err
	}
	cm := &ConsolidatedMetadata{ConsolidatedFormat: 1, Metadata: map[string]MetaTyper{}}
	cm.add(nil, root)

	for _, path := range paths {
		p, err := NewPath(path)
		if err != nil {
			return err
		}
		meta, err := readArrayMeta(store, p)
		if err != nil {
			return fmt.Errorf("consolidating %q: %w", p.String(), err)
		}
		cm.add(p, meta)

		attrs, err := lookup(store, p.Join(string(MTAttributes)).String())
		switch {
		case err == nil:
			cm.add(p, attrs)
		case !errors.Is(err, ErrNotfound):
			return err
		}
	}
	return putMeta(store, string(MTMetadata), cm)
}

func putMeta(store Store, key string, v interface{}) error {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return store.Put(key, buf)
}

func newArray(store Store, p Path, mode PersistenceMode, meta *ArrayMeta) (*Array, error) {
	dt, err := meta.Dtype.Basic()
	if err != nil {
		return nil, err
	}
	return &Array{
		path:  p,
		store: store,
		mode:  mode,
		meta:  meta,
		dtype: dt,
	}, nil
}

func (a *Array) Info() string {
	return fmt.Sprintf("<zarr-go.Array %s shape=%v chunks=%v dtype=%s>", a.Path(), a.meta.Shape, a.meta.Chunks, a.dtype)
}

func (a *Array) Path() string {
	return a.path.String()
}

func (a *Array) Meta() ArrayMeta { return *a.meta }

// Attrs returns the user attributes stored with the array.
func (a *Array) Attrs() (Attributes, error) {
	v, err := lookup(a.store, a.path.Join(string(MTAttributes)).String())
	if errors.Is(err, ErrNotfound) {
		return Attributes{}, nil
	}
	if err != nil {
		return nil, err
	}
	return v.(Attributes), nil
}

// SetAttrs replaces the user attributes stored with the array.
func (a *Array) SetAttrs(attrs Attributes) error {
	if a.mode == ModeRead {
		return ErrReadOnly
	}
	return putMeta(a.store, a.path.Join(string(attrs.MetaType())).String(), attrs)
}

func (a *Array) Shape() []int { return append([]int(nil), a.meta.Shape...) }

func (a *Array) Dtype() nd.Dtype { return a.dtype }

// ChunkGrid returns the number of chunks along each dimension.
func (a *Array) ChunkGrid() []int {
	grid := make([]int, len(a.meta.Shape))
	for i, s := range a.meta.Shape {
		grid[i] = (s + a.meta.Chunks[i] - 1) / a.meta.Chunks[i]
	}
	return grid
}

// chunkExtent is the region of the array covered by the chunk at coords,
// clipped to the array's shape.
func (a *Array) chunkExtent(coords []int) nd.Slice {
	full := a.chunkFrame(coords)
	return full.Intersection(nd.Whole(a.meta.Shape))
}

// chunkFrame is the unclipped region a stored chunk spans.
func (a *Array) chunkFrame(coords []int) nd.Slice {
	s := nd.Slice{Origin: make([]int, len(coords)), Shape: append([]int(nil), a.meta.Chunks...)}
	for i, c := range coords {
		s.Origin[i] = c * a.meta.Chunks[i]
	}
	return s
}

// ReadChunk decodes the chunk at coords. The result always has the full
// chunk shape; chunks that were never written hold the fill value.
func (a *Array) ReadChunk(coords []int) (*nd.Array, error) {
	if err := a.checkCoords(coords); err != nil {
		return nil, err
	}

	f, err := a.openChunk(coords)
	if errors.Is(err, ErrNotfound) {
		out := nd.Zeros(a.meta.Chunks...)
		out.Fill(a.meta.Fill())
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := 1
	for _, c := range a.meta.Chunks {
		n *= c
	}
	values, err := a.dtype.Decode(f, n)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", a.chunkKey(coords), err)
	}
	return nd.FromSlice(a.meta.Chunks, values)
}

// WriteChunk encodes and stores data, which must have the full chunk shape.
func (a *Array) WriteChunk(coords []int, data *nd.Array) (err error) {
	if a.mode == ModeRead {
		return ErrReadOnly
	}
	if err := a.checkCoords(coords); err != nil {
		return err
	}
	if !nd.Whole(data.Shape()).Equal(nd.Whole(a.meta.Chunks)) {
		return &nd.ShapeError{Op: "write chunk", Want: a.meta.Chunks, Got: data.Shape()}
	}

	buf := &bytes.Buffer{}
	w, err := a.meta.Compressor.Compressor(buf)
	if err != nil {
		return err
	}
	if err := a.dtype.Encode(w, data.Data()); err != nil {
		return multierr.Append(err, w.Close())
	}
	if err := w.Close(); err != nil {
		return err
	}
	return a.store.Put(a.chunkKey(coords), buf)
}

// Write stores the whole array, chunk by chunk. Parts of edge chunks outside
// the array hold the fill value.
func (a *Array) Write(data *nd.Array) error {
	if !nd.Whole(data.Shape()).Equal(nd.Whole(a.meta.Shape)) {
		return &nd.ShapeError{Op: "write array", Want: a.meta.Shape, Got: data.Shape()}
	}

	grid := a.ChunkGrid()
	for _, g := range nd.Whole(grid).Subdivide(ones(len(grid))) {
		coords := g.Origin
		extent := a.chunkExtent(coords)

		chunk := nd.Zeros(a.meta.Chunks...)
		chunk.Fill(a.meta.Fill())
		dst, err := chunk.ViewSlice(extent.Shift(a.chunkFrame(coords)))
		if err != nil {
			return err
		}
		src, err := data.ViewSlice(extent)
		if err != nil {
			return err
		}
		if err := dst.CopyFrom(src); err != nil {
			return err
		}
		if err := a.WriteChunk(coords, chunk); err != nil {
			return fmt.Errorf("writing chunk %s: %w", a.chunkKey(coords), err)
		}
	}
	return nil
}

// Read materializes the region sel of the array.
func (a *Array) Read(sel nd.Slice) (*nd.Array, error) {
	if sel.Dims() != len(a.meta.Shape) || !nd.Whole(a.meta.Shape).Contains(sel) {
		return nil, &nd.ShapeError{Op: "read region", Want: a.meta.Shape, Got: sel.Shape}
	}

	out := nd.Zeros(sel.Shape...)
	for _, p := range a.projections(sel) {
		chunk, err := a.ReadChunk(p.ChunkCoords)
		if err != nil {
			return nil, err
		}
		src, err := chunk.ViewSlice(p.ChunkSelection)
		if err != nil {
			return nil, err
		}
		dst, err := out.ViewSlice(p.OutSelection)
		if err != nil {
			return nil, err
		}
		if err := dst.CopyFrom(src); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *Array) checkCoords(coords []int) error {
	grid := a.ChunkGrid()
	if len(coords) != len(grid) {
		return &nd.ShapeError{Op: "chunk coordinates", Want: grid, Got: coords}
	}
	for i, c := range coords {
		if c < 0 || c >= grid[i] {
			return &nd.ShapeError{Op: "chunk coordinates out of range", Want: grid, Got: coords}
		}
	}
	return nil
}

func (a *Array) openChunk(coords []int) (io.ReadCloser, error) {
	f, err := a.store.Get(a.chunkKey(coords))
	if err != nil {
		return nil, err
	}
	r, err := a.meta.Compressor.Decompressor(f)
	if err != nil {
		return nil, multierr.Append(err, f.Close())
	}
	return &chunkReader{ReadCloser: r, raw: f}, nil
}

func (a *Array) chunkKey(coords []int) string {
	sep := a.meta.DimensionSeparator
	if sep == "" {
		sep = "."
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return a.path.Join(strings.Join(parts, sep)).String()
}

// chunkReader closes both the decompressor and the stored object.
type chunkReader struct {
	io.ReadCloser
	raw io.Closer
}

func (r *chunkReader) Close() error {
	err := r.ReadCloser.Close()
	if r.ReadCloser != r.raw {
		err = multierr.Append(err, r.raw.Close())
	}
	return err
}

func ones(n int) []int {
	v := make([]int, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

type PersistenceMode string

const (
	// Persistence mode:
	// ‘r’ means read only (must exist);
	ModeRead PersistenceMode = "r"
	//‘r+’ means read/write (must exist)
	ModeReadWrite PersistenceMode = "r+"
	// ‘a’ means read/write (create if doesn’t exist)
	ModeReadWriteCreate PersistenceMode = "a"
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists).
	ModeWriteFail PersistenceMode = "w-"
)

// Arrays can be organized into groups which can also contain other groups.
// A group is created by storing group ArrayMeta under the “.zgroup” key under
// some logical path. E.g., a group exists at the root of an array store if the
// “.zgroup” key exists in the store, and a group exists at logical path
// “foo/bar” if the “foo/bar/.zgroup” key exists in the store.
type Group struct {
	ZarrFormat int `json:"zarr_format"`
}

func (Group) MetaType() MetaType { return MTGroup }

type Path []string

// NewPath normalizes a logical path: backslashes become forward slashes,
// leading and trailing slashes are stripped and runs of slashes collapse.
// "." and ".." segments are rejected.
func NewPath(posix string) (Path, error) {
	posix = strings.ReplaceAll(posix, `\`, "/")
	var p Path
	for _, seg := range strings.Split(posix, "/") {
		switch seg {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("invalid path segment %q in %q", seg, posix)
		}
		p = append(p, seg)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Join returns a new path; p is never modified.
func (p Path) Join(elems ...string) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}
