package gprover

import (
	"context"
	"fmt"
	"os"
	"time"

	"gprover/internal/cache"
	"gprover/internal/prover"
	"gprover/internal/report"
	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	cfg     smt.Config
	opts    prover.Options
	workers int
	cache   *cache.Cache
}

// NewRunner proves with at most workers theorems in flight. verdicts may be
// nil to disable caching.
func NewRunner(cfg smt.Config, opts prover.Options, workers int, verdicts *cache.Cache) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		cfg:     cfg,
		opts:    opts,
		workers: workers,
		cache:   verdicts,
	}
}

// LoadUnit reads the extraction output of one source unit.
func LoadUnit(path string) (*syntax.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	unit, err := syntax.DecodeUnit(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if unit.Name == "" {
		unit.Name = path
	}
	return unit, nil
}

type job struct {
	unit    string
	theorem *prover.Theorem
}

// Run proves every function of units. Entries come back in source order.
// Only failures of the run itself are returned as errors; verdicts,
// including Skipped, are in the entries.
func (r *Runner) Run(ctx context.Context, units []*syntax.Unit) ([]report.Entry, error) {
	var jobs []job
	for _, unit := range units {
		theorems := prover.TheoremsFromUnit(unit, r.cfg, r.opts)
		log.Infof("unit %s: %d functions", unit.Name, len(theorems))
		for _, th := range theorems {
			jobs = append(jobs, job{unit: unit.Name, theorem: th})
		}
	}

	if len(jobs) == 0 {
		return nil, errors.New("no function found")
	}

	startTime := time.Now()
	entries := make([]report.Entry, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			entry, err := r.prove(ctx, jobs[i])
			if err != nil {
				return errors.Wrapf(err, "%s: %s", jobs[i].unit, jobs[i].theorem.Name())
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Infof("proved %d theorems in %s", len(jobs), time.Since(startTime))
	return entries, nil
}

func (r *Runner) prove(ctx context.Context, j job) (report.Entry, error) {
	th := j.theorem
	var key []byte
	if r.cache != nil {
		key = cache.Key(th.Function(), r.cfg, r.opts)
		verdict, err := r.cache.Get(key)
		if err != nil {
			return report.Entry{}, err
		}
		if verdict != nil {
			log.Debugf("%s: cached %s", th.Name(), verdict.Conclusion)
			return cachedEntry(j.unit, th.Name(), verdict), nil
		}
	}

	if err := th.Prove(ctx); err != nil {
		return report.Entry{}, err
	}
	log.Infof("%s: %s", th.Name(), th.Conclusion())
	if th.Conclusion() == prover.Skipped {
		log.Debugf("%s: %v", th.Name(), th.Error())
	}

	if r.cache != nil {
		if verdict, ok := cache.FromTheorem(th); ok {
			if err := r.cache.Put(key, verdict); err != nil {
				return report.Entry{}, err
			}
		}
	}
	return report.NewEntry(j.unit, th), nil
}

func cachedEntry(unit, name string, v *cache.Verdict) report.Entry {
	e := report.Entry{
		Unit:       unit,
		Name:       name,
		Conclusion: prover.Disproved,
		Validated:  v.Validated,
		Cached:     true,
	}
	if v.Proved() {
		e.Conclusion = prover.Proved
	}
	for _, b := range v.Counterexample {
		e.Counterexample = append(e.Counterexample, fmt.Sprintf("%s = %s", b.Name, b.Value))
	}
	return e
}
