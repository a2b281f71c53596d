package sim

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/metrics"
)

// Ensemble runs one configuration under consecutive seeds concurrently.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart uint64
	logger    *log.Logger
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart uint64, logger *log.Logger) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart, logger: logger}
}

// Run returns one result per seed, in seed order. The first build or run
// error cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, runCfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := *e.cfg
			cfg.Run.Seed = e.seedStart + uint64(i)

			u, err := Build(&cfg, e.logger)
			if err != nil {
				return err
			}

			sim := New(u, e.logger)
			for _, m := range metrics.Defaults() {
				sim.AddMetric(m)
			}

			res, err := sim.Run(ctx, runCfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
