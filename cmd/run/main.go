package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/mcsim"
	"github.com/fumin/mcsim/config"
	"github.com/fumin/mcsim/render"
	"github.com/fumin/mcsim/store"
	"github.com/fumin/mcsim/util"
)

const (
	fnameDone       = "done.txt"
	fnameStatistics = "statistics.txt"
	fnameImage      = "field.png"
	fnameDB         = "fields.db"

	// chunks is the number of pieces a relaxation is split into for progress reporting.
	chunks = 100
)

var (
	runDir   = flag.String("d", filepath.Join("runs", "mcsim"), "run directory")
	lattice  = flag.Int("n", 30, "lattice size")
	steps    = flag.Int("steps", 1_000_000, "Monte Carlo steps per run")
	stepSize = flag.Float64("step", 0.2, "perturbation step size")
	seed     = flag.Uint64("seed", 1, "random seed")
)

type Statistics struct {
	d  float64
	bz float64
	mcsim.Statistics
}

func relax(ctx context.Context, db *store.DB, name string, cfg *config.Config) (*mcsim.System, error) {
	rng := mcsim.NewRand(cfg.Seed)
	sys, err := cfg.NewSystem(rng)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	throttler := util.NewSkipThrottler(30 * time.Second)
	chunk := max(1, cfg.Steps/chunks)
	for done := 0; done < cfg.Steps; done += chunk {
		m := min(chunk, cfg.Steps-done)
		if err := mcsim.Drive(ctx, sys, m, rng, cfg.DriveOptions()); err != nil {
			return nil, errors.Wrap(err, "")
		}
		if throttler.Ok() {
			log.Printf("%s step %d/%d energy %f", name, done+m, cfg.Steps, sys.Energy())
		}

		// Snapshot so that an interrupted sweep can be inspected.
		if err := db.Save(ctx, name, sys.Field()); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return sys, nil
}

func solve(ctx context.Context, db *store.DB, dir string, cfg *config.Config) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	name, err := filepath.Rel(*runDir, dir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	sys, err := relax(ctx, db, name, cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := store.WriteCSV(dir, sys.Field()); err != nil {
		return errors.Wrap(err, "")
	}
	title := fmt.Sprintf("D=%g Bz=%g", cfg.D, cfg.B[2])
	if err := render.Save(filepath.Join(dir, fnameImage), sys.Field(), render.NewOptions().Title(title)); err != nil {
		return errors.Wrap(err, "")
	}
	b, err := json.Marshal(mcsim.GetStatistics(sys))
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameStatistics), b, 0644); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func gather(dir string) ([]Statistics, error) {
	stats := make([]Statistics, 0)
	dEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for _, dent := range dEntries {
		if !dent.IsDir() {
			continue
		}
		d, err := strconv.ParseFloat(dent.Name(), 64)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", dent))
		}

		ddir := filepath.Join(dir, dent.Name())
		bEntries, err := os.ReadDir(ddir)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", dent))
		}
		for _, bent := range bEntries {
			bz, err := strconv.ParseFloat(bent.Name(), 64)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v", dent, bent))
			}

			bdir := filepath.Join(ddir, bent.Name())
			sb, err := os.ReadFile(filepath.Join(bdir, fnameStatistics))
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v", dent, bent))
			}
			s := Statistics{d: d, bz: bz}
			if err := json.Unmarshal(sb, &s); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%#v %#v", dent, bent))
			}
			stats = append(stats, s)
		}
	}
	return stats, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	ctx := context.Background()
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	db, err := store.Open(ctx, filepath.Join(*runDir, fnameDB))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	configs := make([]*config.Config, 0)
	for _, d := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1} {
		for _, bz := range []float64{0, 0.1, 0.2, 0.3, 0.5} {
			cfg := config.DefaultConfig()
			cfg.Lattice = [2]int{*lattice, *lattice}
			cfg.Init = config.InitRandom
			cfg.B = [3]float64{0, 0, bz}
			cfg.U = [3]float64{0, 0, 1}
			cfg.K = 0.05
			cfg.J = 1
			cfg.D = d
			cfg.Steps = *steps
			cfg.StepSize = *stepSize
			cfg.Local = true
			cfg.Seed = *seed
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "")
			}
			configs = append(configs, cfg)
		}
	}

	// Relax every configuration.
	for _, cfg := range configs {
		dir := filepath.Join(*runDir, fmt.Sprintf("%f", cfg.D), fmt.Sprintf("%f", cfg.B[2]))
		if err := solve(ctx, db, dir, cfg); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%f %f", cfg.D, cfg.B[2]))
		}
		log.Printf("D %f Bz %f", cfg.D, cfg.B[2])
	}

	// Gather results and print them.
	stats, err := gather(*runDir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("d,bz,energy,zeeman,anisotropy,exchange,dmi,mz,m,q\n")
	for _, s := range stats {
		fmt.Printf("%f,%f,%f,%f,%f,%f,%f,%f,%f,%f\n", s.d, s.bz, s.Energy, s.Zeeman, s.Anisotropy, s.Exchange, s.DMI, s.Mean.Z, s.Magnetization, s.TopologicalCharge)
	}
	return nil
}
