package zarr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probonopd/LiberTEM/dataset"
	"github.com/probonopd/LiberTEM/nd"
)

func arange(shape ...int) *nd.Array {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i % 251)
	}
	a, _ := nd.FromSlice(shape, data)
	return a
}

func newMeta(dtype string, compressor string, shape, chunks []int) *ArrayMeta {
	m := &ArrayMeta{
		Shape:  shape,
		Chunks: chunks,
		Dtype:  StructuredType{Dtype: nd.MustParseDtype(dtype)},
	}
	if compressor != "" {
		m.Compressor = &CompressionMeta{ID: compressor}
	}
	return m
}

func TestZarr(t *testing.T) {
	s := NewMemoryStore()
	_, err := Open(s, "foo/bar", ModeReadWrite)
	if !errors.Is(err, ErrNotfound) {
		t.Fatalf("expected not found, got %v", err)
	}

	a, err := Create(s, "foo/bar", newMeta("<f8", "", []int{10, 10}, []int{4, 4}))
	if err != nil {
		t.Fatal(err)
	}
	if a.Path() != "foo/bar" {
		t.Errorf("unexpected path %q", a.Path())
	}

	b, err := Open(s, "/foo//bar/", ModeRead)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.ChunkGrid(); got[0] != 3 || got[1] != 3 {
		t.Errorf("unexpected chunk grid %v", got)
	}
	if err := b.WriteChunk([]int{0, 0}, nd.Zeros(4, 4)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected read only error, got %v", err)
	}
	t.Log(b.Info())
}

func TestReadWriteRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		dtype      string
		compressor string
		shape      []int
		chunks     []int
	}{
		{"float64 uncompressed", "<f8", "", []int{5, 5, 16, 16}, []int{1, 3, 6, 6}},
		{"uint16 zstd", "<u2", CompressorZstd, []int{5, 5, 16, 16}, []int{2, 5, 16, 16}},
		{"big endian gzip", ">i4", CompressorGzip, []int{7, 9}, []int{3, 4}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewMemoryStore()
			a, err := Create(s, "data", newMeta(c.dtype, c.compressor, c.shape, c.chunks))
			require.NoError(t, err)

			src := arange(c.shape...)
			require.NoError(t, a.Write(src))

			got, err := a.Read(nd.Whole(c.shape))
			require.NoError(t, err)
			require.Equal(t, src.Data(), got.Data())

			sel := nd.Whole(c.shape)
			sel.Origin[0], sel.Shape[0] = 1, 2
			part, err := a.Read(sel)
			require.NoError(t, err)
			want, err := src.ViewSlice(sel)
			require.NoError(t, err)
			require.Equal(t, want.Data(), part.Data())
		})
	}
}

func TestMissingChunksUseFillValue(t *testing.T) {
	s := NewMemoryStore()
	m := newMeta("<f4", "", []int{4, 4}, []int{2, 2})
	m.FillValue = 3.0
	a, err := Create(s, "sparse", m)
	require.NoError(t, err)

	chunk := nd.Zeros(2, 2)
	chunk.Fill(1)
	require.NoError(t, a.WriteChunk([]int{1, 1}, chunk))
	require.Len(t, s.Keys("sparse/"), 2)

	got, err := a.Read(nd.Whole([]int{4, 4}))
	require.NoError(t, err)
	require.Equal(t, float64(12*3+4*1), got.Sum())

	require.ErrorIs(t, a.WriteChunk([]int{2, 0}, chunk), nd.ErrShapeMismatch)
	require.ErrorIs(t, a.WriteChunk([]int{0, 0}, nd.Zeros(3, 3)), nd.ErrShapeMismatch)
	_, err = a.Read(nd.MustSlice([]int{3, 3}, []int{2, 2}))
	require.ErrorIs(t, err, nd.ErrShapeMismatch)
}

func TestNestedDimensionSeparator(t *testing.T) {
	s := NewMemoryStore()
	m := newMeta("|u1", "", []int{2, 2}, []int{1, 2})
	m.DimensionSeparator = "/"
	a, err := Create(s, "nested", m)
	require.NoError(t, err)
	require.NoError(t, a.Write(arange(2, 2)))
	require.Equal(t, []string{"nested/.zarray", "nested/0/0", "nested/1/0"}, s.Keys("nested/"))
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	a, err := Create(s, "scan/frames", newMeta("<u2", CompressorZstd, []int{3, 4, 4}, []int{1, 4, 4}))
	require.NoError(t, err)
	require.NoError(t, a.Write(arange(3, 4, 4)))

	b, err := Open(s, "scan/frames", ModeRead)
	require.NoError(t, err)
	got, err := b.Read(nd.Whole([]int{3, 4, 4}))
	require.NoError(t, err)
	require.Equal(t, arange(3, 4, 4).Data(), got.Data())

	_, err = s.Get("scan/nothing")
	require.ErrorIs(t, err, ErrNotfound)
}

func TestDatasetInvariants(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, err := Create(s, "data", newMeta("<f8", "", []int{5, 5, 16, 16}, []int{1, 3, 6, 6}))
	require.NoError(t, err)
	require.NoError(t, a.Write(arange(5, 5, 16, 16)))

	for _, target := range []int{1, 5 * 16 * 16 * 8 * 2, 1 << 30} {
		ds := NewDataset(a, WithTargetPartitionSize(target))
		require.NoError(t, dataset.CheckPartitioning(ctx, ds))

		parts, err := ds.Partitions(ctx)
		require.NoError(t, err)
		for _, p := range parts {
			require.NoError(t, dataset.CheckTiling(ctx, p))
		}
	}

	parts, err := NewDataset(a, WithTargetPartitionSize(1)).Partitions(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 5)
	require.Equal(t, nd.Float64, parts[0].Dtype())
}

func TestDatasetTilesMatchArray(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, err := Create(s, "data", newMeta("<f8", CompressorZstd, []int{4, 7}, []int{2, 3}))
	require.NoError(t, err)
	src := arange(4, 7)
	require.NoError(t, a.Write(src))

	parts, err := NewDataset(a).Partitions(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 1)

	it, err := parts[0].Tiles(ctx)
	require.NoError(t, err)
	defer it.Close()
	n := 0
	for {
		tile, err := it.Next()
		if err != nil {
			break
		}
		want, err := src.ViewSlice(tile.Slice)
		require.NoError(t, err)
		require.Equal(t, want.Data(), tile.Data.Data())
		n++
	}
	require.Equal(t, 6, n)
}

func TestPersistenceModes(t *testing.T) {
	s := NewMemoryStore()
	meta := func() *ArrayMeta { return newMeta("<f4", "", []int{4, 4}, []int{2, 2}) }

	_, err := New(s, "scan", ModeRead, nil)
	require.ErrorIs(t, err, ErrNotfound)
	_, err = New(s, "scan", ModeReadWrite, meta())
	require.ErrorIs(t, err, ErrNotfound)
	_, err = New(s, "scan", ModeReadWriteCreate, nil)
	require.Error(t, err)

	a, err := New(s, "scan", ModeWriteFail, meta())
	require.NoError(t, err)
	require.NoError(t, a.WriteChunk([]int{0, 0}, nd.Zeros(2, 2)))

	_, err = New(s, "scan", ModeWriteFail, meta())
	require.ErrorIs(t, err, ErrExists)

	other := newMeta("<f8", "", []int{8}, []int{8})
	b, err := New(s, "scan", ModeReadWriteCreate, other)
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, b.Shape(), "existing metadata wins in append mode")

	c, err := New(s, "fresh", ModeReadWriteCreate, other)
	require.NoError(t, err)
	require.Equal(t, []int{8}, c.Shape())

	rw, err := Open(s, "scan", ModeReadWrite)
	require.NoError(t, err)
	require.NoError(t, rw.WriteChunk([]int{1, 1}, nd.Zeros(2, 2)))

	w, err := New(s, "scan", ModeWrite, other)
	require.NoError(t, err)
	require.Equal(t, []int{8}, w.Shape())

	_, err = New(s, "scan", PersistenceMode("x"), meta())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestAttributes(t *testing.T) {
	s := NewMemoryStore()
	a, err := Create(s, "scan", newMeta("|u1", "", []int{2}, []int{2}))
	require.NoError(t, err)

	attrs, err := a.Attrs()
	require.NoError(t, err)
	require.Empty(t, attrs)

	require.NoError(t, a.SetAttrs(Attributes{"pattern": "ones"}))
	r, err := Open(s, "scan", ModeRead)
	require.NoError(t, err)
	attrs, err = r.Attrs()
	require.NoError(t, err)
	require.Equal(t, "ones", attrs["pattern"])
	require.ErrorIs(t, r.SetAttrs(Attributes{}), ErrReadOnly)
}

func TestConsolidatedMetadataFallback(t *testing.T) {
	src := NewMemoryStore()
	a, err := Create(src, "data/scan", newMeta("<u2", CompressorGzip, []int{3, 4, 4}, []int{1, 2, 4}))
	require.NoError(t, err)
	require.NoError(t, a.Write(arange(3, 4, 4)))
	require.NoError(t, a.SetAttrs(Attributes{"detector": "k2"}))
	_, err = Create(src, "data/dark", newMeta("<f8", "", []int{4, 4}, []int{4, 4}))
	require.NoError(t, err)

	require.NoError(t, Consolidate(src, "data/scan", "data/dark"))
	_, err = src.Get(".zgroup")
	require.NoError(t, err)

	// a copy holding chunks and the consolidated document only
	dst := NewMemoryStore()
	for _, key := range src.Keys("") {
		if _, ok := KeyMetaType(key); ok && key != ".zgroup" {
			continue
		}
		r, err := src.Get(key)
		require.NoError(t, err)
		require.NoError(t, dst.Put(key, r))
	}
	require.NotContains(t, dst.Keys(""), "data/scan/.zarray")

	b, err := Open(dst, "data/scan", ModeRead)
	require.NoError(t, err)
	require.Equal(t, nd.Uint16, b.Dtype())
	got, err := b.Read(nd.Whole([]int{3, 4, 4}))
	require.NoError(t, err)
	require.Equal(t, arange(3, 4, 4).Data(), got.Data())

	attrs, err := b.Attrs()
	require.NoError(t, err)
	require.Equal(t, "k2", attrs["detector"])

	_, err = Open(dst, "data/dark", ModeRead)
	require.NoError(t, err)
	_, err = Open(dst, "data/missing", ModeRead)
	require.ErrorIs(t, err, ErrNotfound)

	require.Error(t, Consolidate(dst, "data/missing"))
}
