package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/probonopd/LiberTEM/executor"
	"github.com/probonopd/LiberTEM/zarr"
)

type globalFlags struct {
	store   string
	array   string
	workers int
	check   bool
	verbose bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "tilecom",
		Short:        "Run tiled jobs over zarr-backed scan datasets",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.store, "store", ".", "directory of the zarr store")
	pf.StringVar(&g.array, "array", "scan", "path of the array inside the store")
	pf.IntVar(&g.workers, "workers", 4, "number of tasks run at once")
	pf.BoolVar(&g.check, "check", false, "verify result tiles never write the same output element twice")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log every task")

	root.AddCommand(
		newCreateCommand(g),
		newPickCommand(g),
		newCenterOfMassCommand(g),
	)
	return root
}

func (g *globalFlags) logger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !g.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func (g *globalFlags) openStore() (*zarr.LocalStore, error) {
	return zarr.NewLocalStore(g.store)
}

func (g *globalFlags) openArray() (*zarr.Array, error) {
	store, err := g.openStore()
	if err != nil {
		return nil, err
	}
	arr, err := zarr.Open(store, g.array, zarr.ModeRead)
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", g.array, g.store, err)
	}
	return arr, nil
}

func (g *globalFlags) executor(logger *zap.Logger) executor.Executor {
	return executor.NewPool(executor.WithWorkers(g.workers), executor.WithLogger(logger))
}
