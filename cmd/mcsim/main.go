package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/mcsim"
	"github.com/fumin/mcsim/config"
	"github.com/fumin/mcsim/render"
	"github.com/fumin/mcsim/store"
)

const (
	// tracePoints is the number of energies drawn in the trace of a relaxation.
	tracePoints = 80
)

var (
	dbPath     string
	configFile string
	preset     string
	steps      int
	seed       uint64
	replicas   int
	outPath    string
)

func main() {
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	rootCmd := &cobra.Command{
		Use:          "mcsim",
		Short:        "greedy Monte Carlo relaxation of 2D spin lattices",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "mcsim.db", "sqlite file of field snapshots")

	initCmd := &cobra.Command{
		Use:   "init [config.yaml]",
		Short: "write a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	relaxCmd := &cobra.Command{
		Use:   "relax [name]",
		Short: "relax a field and store the lowest energy replica under name",
		Args:  cobra.ExactArgs(1),
		RunE:  relax,
	}
	relaxCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	relaxCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	relaxCmd.Flags().IntVar(&steps, "steps", 0, "override the number of steps")
	relaxCmd.Flags().Uint64Var(&seed, "seed", 0, "override the random seed")
	relaxCmd.Flags().IntVar(&replicas, "replicas", 0, "override the number of replicas")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored fields",
		RunE:  list,
	}

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "show statistics of a stored field",
		Args:  cobra.ExactArgs(1),
		RunE:  show,
	}
	showCmd.Flags().StringVar(&configFile, "config", "", "config file whose parameters give the energies")
	showCmd.Flags().StringVar(&preset, "preset", "", "preset whose parameters give the energies")

	plotCmd := &cobra.Command{
		Use:   "plot [name]",
		Short: "render a stored field as PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  plotField,
	}
	plotCmd.Flags().StringVarP(&outPath, "out", "o", "", "output path, default [name].png")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, relaxCmd, listCmd, showCmd, plotCmd, presetsCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func loadConfig() (*config.Config, error) {
	switch {
	case configFile != "" && preset != "":
		return nil, errors.Errorf("both config %q and preset %q", configFile, preset)
	case configFile != "":
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		return cfg, nil
	case preset != "":
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, errors.Errorf("unknown preset %q, available %v", preset, config.ListPresets())
		}
		return cfg, nil
	default:
		return config.DefaultConfig(), nil
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := config.Save(args[0], cfg); err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func relax(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("replicas") {
		cfg.Replicas = replicas
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var best *mcsim.System
	if cfg.Replicas == 1 {
		best, err = relaxTraced(ctx, cfg)
	} else {
		best, err = relaxReplicas(ctx, cfg)
	}
	if err != nil {
		return errors.Wrap(err, "")
	}

	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()
	if err := db.Save(ctx, name, best.Field()); err != nil {
		return errors.Wrap(err, "")
	}

	printStatistics(mcsim.GetStatistics(best))
	fmt.Printf("saved %s to %s\n", name, dbPath)
	return nil
}

// relaxTraced relaxes a single replica and draws its energy after every chunk of steps.
func relaxTraced(ctx context.Context, cfg *config.Config) (*mcsim.System, error) {
	rng := mcsim.NewRand(cfg.Seed)
	sys, err := cfg.NewSystem(rng)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	trace := []float64{sys.Energy()}
	chunk := max(1, cfg.Steps/tracePoints)
	for done := 0; done < cfg.Steps; done += chunk {
		if err := mcsim.Drive(ctx, sys, min(chunk, cfg.Steps-done), rng, cfg.DriveOptions()); err != nil {
			return nil, errors.Wrap(err, "")
		}
		trace = append(trace, sys.Energy())
	}

	graph := asciigraph.Plot(trace,
		asciigraph.Height(15),
		asciigraph.Width(tracePoints),
		asciigraph.Caption(fmt.Sprintf("energy over %d steps", cfg.Steps)),
	)
	fmt.Println(graph)
	fmt.Println()
	return sys, nil
}

func relaxReplicas(ctx context.Context, cfg *config.Config) (*mcsim.System, error) {
	seeds := cfg.Seeds()
	systems, err := mcsim.RunReplicas(ctx, seeds, cfg.NewSystem, cfg.Steps, cfg.DriveOptions())
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	lowest := mcsim.Lowest(systems)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tENERGY\tMZ\tQ\t")
	for i, sys := range systems {
		stats := mcsim.GetStatistics(sys)
		mark := ""
		if i == lowest {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.3f\t%s\n", seeds[i], stats.Energy, stats.Mean.Z, stats.TopologicalCharge, mark)
	}
	if err := w.Flush(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	fmt.Println()
	return systems[lowest], nil
}

func list(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	names, err := db.Names(ctx)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if len(names) == 0 {
		fmt.Println("no fields found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLATTICE\tMZ\tQ\t")
	for _, name := range names {
		f, err := db.Load(ctx, name)
		if err != nil {
			return errors.Wrap(err, "")
		}
		n := f.Dims()
		fmt.Fprintf(w, "%s\t%dx%d\t%.4f\t%.3f\t\n", name, n[0], n[1], f.Mean().Z, mcsim.TopologicalCharge(f))
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func show(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()
	f, err := db.Load(ctx, args[0])
	if err != nil {
		return errors.Wrap(err, "")
	}

	n := f.Dims()
	fmt.Printf("lattice:   %dx%d\n", n[0], n[1])
	if configFile == "" && preset == "" {
		m := f.Mean()
		fmt.Printf("mean:      (%.4f, %.4f, %.4f)\n", m.X, m.Y, m.Z)
		fmt.Printf("charge:    %.4f\n", mcsim.TopologicalCharge(f))
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "")
	}
	sys, err := mcsim.NewSystem(f, cfg.Params())
	if err != nil {
		return errors.Wrap(err, "")
	}
	printStatistics(mcsim.GetStatistics(sys))
	return nil
}

func plotField(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := context.Background()
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()
	f, err := db.Load(ctx, name)
	if err != nil {
		return errors.Wrap(err, "")
	}

	path := outPath
	if path == "" {
		path = name + ".png"
	}
	if err := render.Save(path, f, render.NewOptions().Title(name)); err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func printStatistics(stats mcsim.Statistics) {
	fmt.Printf("energy:     %.6f\n", stats.Energy)
	fmt.Printf("zeeman:     %.6f\n", stats.Zeeman)
	fmt.Printf("anisotropy: %.6f\n", stats.Anisotropy)
	fmt.Printf("exchange:   %.6f\n", stats.Exchange)
	fmt.Printf("dmi:        %.6f\n", stats.DMI)
	fmt.Printf("mean:       (%.4f, %.4f, %.4f)\n", stats.Mean.X, stats.Mean.Y, stats.Mean.Z)
	fmt.Printf("charge:     %.4f\n", stats.TopologicalCharge)
}
