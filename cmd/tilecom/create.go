package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/probonopd/LiberTEM/nd"
	"github.com/probonopd/LiberTEM/zarr"
)

type createFlags struct {
	shape      []int
	chunks     []int
	dtype      string
	compressor string
	pattern    string
	mode       string
}

func newCreateCommand(g *globalFlags) *cobra.Command {
	f := &createFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a synthetic scan to the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runCreate(g, f, logger)
		},
	}
	fl := cmd.Flags()
	fl.IntSliceVar(&f.shape, "shape", []int{5, 5, 16, 16}, "array shape, navigation dimensions first")
	fl.IntSliceVar(&f.chunks, "chunks", nil, "chunk shape (default: one frame)")
	fl.StringVar(&f.dtype, "dtype", "<u2", "numpy type string of the stored elements")
	fl.StringVar(&f.compressor, "compressor", zarr.CompressorZstd, "chunk compressor: zstd, gzip or none")
	fl.StringVar(&f.pattern, "pattern", "ones", "frame contents: ones, gradient or peak")
	fl.StringVar(&f.mode, "mode", string(zarr.ModeWrite), "persistence mode: w overwrites, w- fails if the array exists")
	return cmd
}

func runCreate(g *globalFlags, f *createFlags, logger *zap.Logger) error {
	if len(f.shape) < 3 {
		return fmt.Errorf("shape %v needs at least one navigation and two signal dimensions", f.shape)
	}
	chunks := f.chunks
	if chunks == nil {
		chunks = make([]int, len(f.shape))
		for i := range chunks {
			chunks[i] = 1
		}
		copy(chunks[len(chunks)-2:], f.shape[len(f.shape)-2:])
	}
	dt, err := nd.ParseDtype(f.dtype)
	if err != nil {
		return err
	}
	fill, err := pattern(f.pattern)
	if err != nil {
		return err
	}

	meta := &zarr.ArrayMeta{
		Shape:  f.shape,
		Chunks: chunks,
		Dtype:  zarr.StructuredType{Dtype: dt},
	}
	if f.compressor != "none" && f.compressor != "" {
		meta.Compressor = &zarr.CompressionMeta{ID: f.compressor}
	}

	store, err := g.openStore()
	if err != nil {
		return err
	}
	arr, err := zarr.New(store, g.array, zarr.PersistenceMode(f.mode), meta)
	if err != nil {
		return err
	}

	data := nd.Zeros(f.shape...)
	navDims := len(f.shape) - 2
	for _, s := range nd.Whole(f.shape).Subdivide(unit(len(f.shape))) {
		data.Set(fill(s.Origin[:navDims], s.Origin[navDims:], f.shape[navDims:]), s.Origin...)
	}
	if err := arr.Write(data); err != nil {
		return err
	}
	if err := arr.SetAttrs(zarr.Attributes{"pattern": f.pattern}); err != nil {
		return err
	}
	if err := zarr.Consolidate(store, g.array); err != nil {
		return err
	}

	logger.Info("array written",
		zap.String("store", g.store),
		zap.String("array", arr.Path()),
		zap.Ints("shape", f.shape),
		zap.Ints("chunks", chunks),
		zap.Stringer("dtype", dt))
	return nil
}

type fillFunc func(nav, pix, frame []int) float64

func pattern(name string) (fillFunc, error) {
	switch name {
	case "ones":
		return func(_, _, _ []int) float64 { return 1 }, nil
	case "gradient":
		return func(_, pix, _ []int) float64 { return float64(pix[len(pix)-1]) }, nil
	case "peak":
		// one bright pixel per frame, walking across the frame with the scan
		return func(nav, pix, frame []int) float64 {
			n := 0
			for _, v := range nav {
				n += v
			}
			y, x := pix[len(pix)-2], pix[len(pix)-1]
			h, w := frame[len(frame)-2], frame[len(frame)-1]
			if y == n%h && x == (3*n)%w {
				return 100
			}
			return 0
		}, nil
	default:
		return nil, fmt.Errorf("unknown pattern %q", name)
	}
}

func unit(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = 1
	}
	return s
}
