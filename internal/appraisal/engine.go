// Package appraisal implements the detailed appraisal calculation engine: flood
// depths at each property, direct and indirect damages, capping, discounting,
// the benefit of a standard of protection and the category rollup.
package appraisal

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/logger"
	"github.com/stwalsh4118/floodfas/internal/models"
)

// ErrMissingDamages is returned when benefits are requested without a damage result.
var ErrMissingDamages = errors.New("damage result is required to compute benefits")

// Engine runs detailed appraisals against a reference curve store. An Engine holds no
// per-run state and may be shared between goroutines.
type Engine struct {
	curves  *curves.Store
	log     *logger.Logger
	workers int
}

// NewEngine creates an engine. workers bounds per-property parallelism; values
// below 1 run properties one at a time.
func NewEngine(store *curves.Store, log *logger.Logger, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		curves:  store,
		log:     log.WithComponent("engine"),
		workers: workers,
	}
}

// Run computes damages, then benefits, then the summary.
func (e *Engine) Run(in models.Inputs) (*models.Results, error) {
	damages, err := e.ComputeDamages(in)
	if err != nil {
		return nil, err
	}

	benefits, err := e.ComputeBenefits(in, damages)
	if err != nil {
		return nil, err
	}

	return &models.Results{
		Damages:  damages,
		Benefits: benefits,
		Summary:  Summarize(damages, benefits),
	}, nil
}

// forEach runs fn for 0..n-1 on at most e.workers goroutines. Each call must only
// write to its own index.
func (e *Engine) forEach(n int, fn func(i int) error) error {
	if e.workers == 1 || n < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}

func propertyError(p models.Property, err error) error {
	return fmt.Errorf("property %s (%s): %w", p.ID, p.Address, err)
}
