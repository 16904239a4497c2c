package main

import (
	"fmt"

	"sports-ai/internal/cfg"
	"sports-ai/internal/dataset"
	"sports-ai/internal/ml"
	"sports-ai/internal/sport"
	"sports-ai/internal/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	dataPath string
	logLevel string
	sport    string
}

// app is the state shared by every subcommand.
type app struct {
	settings cfg.Settings
	store    *storage.Store
	registry *ml.Registry
	builder  *dataset.Builder
	sport    sport.Sport
}

func openApp(g *globalFlags) (*app, error) {
	settings, err := cfg.Load()
	if err != nil {
		return nil, err
	}
	if g.dataPath != "" {
		settings.DataPath = g.dataPath
	}

	level := g.logLevel
	if level == "" {
		level = settings.LogLevel
	}
	if l, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(l)
	}

	sp := settings.DefaultSport
	if g.sport != "" {
		if sp, err = sport.Parse(g.sport); err != nil {
			return nil, err
		}
	}

	store, err := storage.New(settings.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	builder := dataset.NewBuilder(dataset.WithSeed(settings.SplitSeed), dataset.WithTestSize(settings.TestSize))
	registry := ml.NewRegistry(
		ml.WithSnapshotter(store),
		ml.WithTrainTimeout(settings.TrainTimeout),
		ml.WithTrainerConfig(settings.Trainer),
		ml.WithBuilder(builder),
	)
	if err := registry.Restore(); err != nil {
		store.Close()
		return nil, err
	}

	return &app{settings: settings, store: store, registry: registry, builder: builder, sport: sp}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp opens the store around fn.
func withApp(g *globalFlags, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(g)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "aictl",
		Short:         "Sport model registry CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.dataPath, "data", "", "data directory (overrides DATA_PATH)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.sport, "sport", "", "sport (defaults to DEFAULT_SPORT)")

	root.AddCommand(
		trainCmd(g),
		compareCmd(g),
		selectCmd(g),
		activeCmd(g),
		predictCmd(g),
		ingestCmd(g),
		reportCmd(g),
	)
	return root
}
