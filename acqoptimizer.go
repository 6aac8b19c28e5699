package bayesopt

import (
	"math/rand"
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

//////
// Const, vars, types.
//////

// proposal is one candidate produced by an acquisition backend: the
// encoded point, its acquisition score and the strategy that proposed it.
// Proposals live within a single guided iteration.
type proposal struct {
	x        []float64
	score    float64
	strategy Strategy
}

// localSearchFunc polishes a starting point with a bounded local search
// and returns the located minimum and its acquisition score. Swappable
// for tests.
type localSearchFunc func(acq acquisition, start []float64, bounds [][2]float64) ([]float64, float64)

// acqOptimizer minimizes the acquisition score over the search space. Two
// backends are available: pure random sampling, and sampling followed by
// bounded local searches restarted from the most promising samples. The
// restarts run on a worker pool; everything they share (the fitted
// surrogate inside acq) is read-only.
type acqOptimizer struct {
	backend     Backend
	nPoints     int
	nRestarts   int
	nJobs       int
	localSearch localSearchFunc
}

//////
// Methods.
//////

// resolveBackend returns the backend actually used for a space. Spaces
// with categorical dimensions always fall back to sampling: local search
// over unordered categories is ill-defined. The fallback is policy, not
// an error.
func (o *acqOptimizer) resolveBackend(space Space) Backend {
	if space.HasCategorical() {
		return BackendSampling
	}

	if o.backend == BackendAuto {
		return BackendRestarts
	}

	return o.backend
}

// propose finds the candidate point minimizing the acquisition score.
// All random draws happen on the caller's generator before any worker
// goroutine starts, so a seeded run stays reproducible.
func (o *acqOptimizer) propose(space Space, acq acquisition, rng *rand.Rand) proposal {
	points := space.Sample(rng, o.nPoints)

	candidates := encodePoints(space, points)

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = acq.score(c)
	}

	bestIdx := floats.MinIdx(scores)

	best := proposal{
		x:        candidates[bestIdx],
		score:    scores[bestIdx],
		strategy: acq.strategy,
	}

	if o.resolveBackend(space) == BackendSampling {
		return best
	}

	// Restart a bounded local search from the lowest-scoring samples and
	// keep the best local optimum, falling back to the best raw sample if
	// no restart improves on it.
	order := argsortAsc(scores)

	nStarts := min(o.nRestarts, len(order))

	bounds := space.Bounds()

	search := o.localSearch
	if search == nil {
		search = localSearchNelderMead
	}

	polished := make([]proposal, nStarts)

	jobs := o.nJobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	p := pool.New().WithMaxGoroutines(jobs)

	for i := 0; i < nStarts; i++ {
		i := i
		start := candidates[order[i]]

		p.Go(func() {
			x, score := search(acq, start, bounds)
			polished[i] = proposal{x: x, score: score, strategy: acq.strategy}
		})
	}

	p.Wait()

	// Strict comparison in index order keeps the winner deterministic.
	for _, cand := range polished {
		if cand.score < best.score {
			best = cand
		}
	}

	return best
}

//////
// Local search.
//////

// localSearchNelderMead runs a derivative-free Nelder-Mead search from
// start, clamping every probed point to the box bounds of the encoded
// space. On solver failure the starting point is returned unchanged.
func localSearchNelderMead(acq acquisition, start []float64, bounds [][2]float64) ([]float64, float64) {
	clamp := func(x []float64) []float64 {
		c := make([]float64, len(x))
		for i := range x {
			c[i] = clip(x[i], bounds[i][0], bounds[i][1])
		}

		return c
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return acq.score(clamp(x))
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-9,
			Iterations: 20,
		},
		MajorIterations: 200,
	}

	result, err := optimize.Minimize(problem, append([]float64(nil), start...), settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		return start, acq.score(start)
	}

	x := clamp(result.X)

	return x, acq.score(x)
}

//////
// Factory.
//////

// newAcqOptimizer builds the acquisition optimizer for a run's
// configuration.
func newAcqOptimizer(cfg *OptimizationConfig) *acqOptimizer {
	return &acqOptimizer{
		backend:   cfg.Backend,
		nPoints:   cfg.NPoints,
		nRestarts: cfg.NRestarts,
		nJobs:     cfg.NJobs,
	}
}
