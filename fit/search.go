package fit

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/peq"
)

// ErrEmptyTarget is returned when the difference curve has no points.
var ErrEmptyTarget = errors.New("fit: empty difference curve")

// RoundStat summarizes one search round.
type RoundStat struct {
	Round      int       `json:"round"`
	BestError  float64   `json:"best_error"`
	Deviation  Deviation `json:"deviation"`
	BestWorker int       `json:"best_worker"` // -1 when the previous best was kept
	ElapsedSec float64   `json:"elapsed_seconds"`
}

// Result is the outcome of Search.Run.
type Result struct {
	Bank         peq.Bank    `json:"bank"`
	Error        float64     `json:"error"`
	InitialError float64     `json:"initial_error"`
	MinError     float64     `json:"min_error"`
	Rounds       []RoundStat `json:"rounds"`
	EarlyStop    bool        `json:"early_stop"`
	Refined      bool        `json:"refined"`
	Evaluations  int64       `json:"evaluations"`
	Seed         int64       `json:"seed"`
}

// Search coordinates rounds of parallel annealing runs.
type Search struct {
	opts    Options
	diff    curve.Curve
	log     *zap.Logger
	workers int
}

type task struct {
	worker int
	bank   peq.Bank
	dev    Deviation
	diff   curve.Curve
	seed   int64
}

type outcome struct {
	worker int
	bank   peq.Bank
	err    float64
	evals  int64
}

// NewSearch validates opts and binds the search to diff. A nil logger
// disables logging.
func NewSearch(opts Options, diff curve.Curve, log *zap.Logger) (*Search, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if len(diff) == 0 {
		return nil, ErrEmptyTarget
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Search{
		opts:    opts,
		diff:    diff.Clone(),
		log:     log,
		workers: fitcommon.ResolveWorkers(opts.Workers),
	}, nil
}

// MinError is the error at or below which the search stops early.
func (s *Search) MinError() float64 {
	return s.opts.MinErrorPerSample * float64(len(s.diff))
}

// Run searches starting from start, which must hold FilterCount filters.
// A nil start uses Options.InitialBank.
func (s *Search) Run(start peq.Bank) (*Result, error) {
	if start == nil {
		start = s.opts.InitialBank()
	}
	if len(start) != s.opts.FilterCount {
		return nil, fmt.Errorf("start bank has %d filters, want %d", len(start), s.opts.FilterCount)
	}
	best := make(peq.Bank, len(start))
	for i, f := range start {
		best[i] = s.opts.ClampFilter(f)
	}

	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	minError := s.MinError()
	bestErr := Error(best, s.diff)
	res := &Result{
		InitialError: bestErr,
		MinError:     minError,
		Seed:         seed,
	}
	s.log.Info("search started",
		zap.Int("filters", s.opts.FilterCount),
		zap.Int("workers", s.workers),
		zap.Int("iterations", s.opts.Iterations),
		zap.Int("rounds", s.opts.Rounds),
		zap.Int("samples", len(s.diff)),
		zap.Float64("initial_error", bestErr),
		zap.Float64("min_error", minError),
		zap.Int64("seed", seed),
	)

	tasks := make(chan task, s.workers)
	outcomes := make(chan outcome, s.workers)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				outcomes <- s.anneal(t)
			}
		}()
	}
	defer func() {
		close(tasks)
		wg.Wait()
	}()

	dev := s.opts.Deviation
	for round := 0; round < s.opts.Rounds; round++ {
		started := time.Now()
		for w := 0; w < s.workers; w++ {
			tasks <- task{
				worker: w,
				bank:   best.Clone(),
				dev:    dev,
				diff:   s.diff.Clone(),
				seed:   workerSeed(seed, round, w),
			}
		}

		// Barrier: the round ends once every worker has reported.
		results := make([]outcome, s.workers)
		for i := 0; i < s.workers; i++ {
			o := <-outcomes
			results[o.worker] = o
		}

		stat := RoundStat{Round: round + 1, Deviation: dev, BestWorker: -1}
		for _, o := range results {
			res.Evaluations += o.evals
			s.log.Debug("worker finished",
				zap.Int("round", round+1),
				zap.Int("worker", o.worker),
				zap.Float64("error", o.err),
			)
			if o.err < bestErr {
				best, bestErr = o.bank, o.err
				stat.BestWorker = o.worker
			}
		}
		stat.BestError = bestErr
		stat.ElapsedSec = time.Since(started).Seconds()
		res.Rounds = append(res.Rounds, stat)
		s.log.Info("round finished",
			zap.Int("round", round+1),
			zap.Int("of", s.opts.Rounds),
			zap.Float64("best_error", bestErr),
			zap.Float64("min_error", minError),
			zap.Float64s("deviation", dev[:]),
			zap.Int("best_worker", stat.BestWorker),
		)

		if bestErr <= minError {
			res.EarlyStop = true
			break
		}
		dev = dev.Scale(s.opts.DeviationDecay)
	}

	if s.opts.RefineEvals > 0 {
		refined, refinedErr, evals, err := s.refine(best, bestErr, dev, seed)
		res.Evaluations += evals
		switch {
		case err != nil:
			s.log.Warn("mayfly refine failed", zap.Error(err))
		case refinedErr < bestErr:
			s.log.Info("mayfly refine improved bank",
				zap.Float64("before", bestErr),
				zap.Float64("after", refinedErr),
			)
			best, bestErr = refined, refinedErr
			res.Refined = true
		}
	}

	res.Bank = best
	res.Error = bestErr
	return res, nil
}

func (s *Search) anneal(t task) outcome {
	a := NewAnnealer(s.opts, t.diff, rand.New(rand.NewSource(t.seed)))
	out := a.Run(t.bank, t.dev, s.opts.Iterations)
	return outcome{
		worker: t.worker,
		bank:   out,
		err:    Error(out, t.diff),
		evals:  a.Evaluations(),
	}
}

// workerSeed mixes the run seed with round and worker so that nearby run
// seeds do not share worker streams.
func workerSeed(seed int64, round, worker int) int64 {
	x := splitmix64(uint64(seed))
	x = splitmix64(x ^ uint64(round+1))
	x = splitmix64(x ^ uint64(worker+1))
	return int64(x >> 1)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
