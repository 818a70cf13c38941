package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/probonopd/LiberTEM/executor"
	"github.com/probonopd/LiberTEM/job"
	"github.com/probonopd/LiberTEM/masks"
	"github.com/probonopd/LiberTEM/nd"
	"github.com/probonopd/LiberTEM/zarr"
)

func (g *globalFlags) mergerOptions() []job.MergerOption {
	if g.check {
		return []job.MergerOption{job.WithDisjointCheck()}
	}
	return nil
}

func newPickCommand(g *globalFlags) *cobra.Command {
	var nav []int
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Extract the frame at one scan position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			arr, err := g.openArray()
			if err != nil {
				return err
			}
			j, err := job.PickFrame(zarr.NewDataset(arr), nav...)
			if err != nil {
				return err
			}
			frame, err := executor.RunJob(cmd.Context(), g.executor(logger), j, g.mergerOptions()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "frame %v: shape %v sum %g\n", nav, frame.Shape(), frame.Sum())
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&nav, "nav", []int{0, 0}, "scan position")
	return cmd
}

func newCenterOfMassCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "com",
		Short: "Compute the center of mass of every frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			arr, err := g.openArray()
			if err != nil {
				return err
			}
			shape := arr.Shape()
			if len(shape) < 3 {
				return &nd.ShapeError{Op: "center of mass dataset", Want: []int{0, 0, 0}, Got: shape}
			}
			h, w := shape[len(shape)-2], shape[len(shape)-1]
			j, err := job.NewApplyMasksJob(zarr.NewDataset(arr), masks.CenterOfMassFactories(h, w)...)
			if err != nil {
				return err
			}
			sums, err := executor.RunJob(cmd.Context(), g.executor(logger), j, g.mergerOptions()...)
			if err != nil {
				return err
			}
			x, y, err := masks.CenterOfMass(sums)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "x:")
			printGrid(out, x)
			fmt.Fprintln(out, "y:")
			printGrid(out, y)
			return nil
		},
	}
}

// printGrid writes a as rows of its last dimension.
func printGrid(w io.Writer, a *nd.Array) {
	shape := a.Shape()
	cols := shape[len(shape)-1]
	data := a.Data()
	for i := 0; i < len(data); i += cols {
		cells := make([]string, 0, cols)
		for _, v := range data[i : i+cols] {
			cells = append(cells, fmt.Sprintf("%7.3f", v))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}
