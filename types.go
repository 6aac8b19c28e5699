package bayesopt

import (
	"log/slog"
	"math/rand"
)

//////
// Const, vars, types.
//////

// Strategy selects the acquisition function used to score candidate points.
// All strategies follow a minimization convention: lower scores mark more
// promising candidates.
//
// Available strategies:
//   - StrategyLCB: lower confidence bound, mean minus kappa times std
//   - StrategyEI: negated expected improvement over the best observed value
//   - StrategyPI: negated probability of improvement
//   - StrategyEIps / StrategyPIps: EI / PI divided by the predicted
//     evaluation time; requires MinimizeWithCost so observed run times are
//     available
//   - StrategyHedge: runs LCB, EI and PI side by side and picks among their
//     proposals with an adaptive softmax bandit
//
// Usage example:
//
//	config := DefaultConfig()
//	config.Strategy = StrategyEI
//	config.Xi = 0.05 // ask for larger improvements
type Strategy string

// Available acquisition strategies.
const (
	StrategyLCB   Strategy = "LCB"
	StrategyEI    Strategy = "EI"
	StrategyPI    Strategy = "PI"
	StrategyEIps  Strategy = "EIps"
	StrategyPIps  Strategy = "PIps"
	StrategyHedge Strategy = "hedge"
)

// perSecond reports whether the strategy normalizes scores by the predicted
// evaluation time and therefore needs observed costs.
func (s Strategy) perSecond() bool {
	return s == StrategyEIps || s == StrategyPIps
}

// Backend selects how the acquisition function is minimized each iteration.
//
//   - BackendSampling scores NPoints random candidates and keeps the best.
//   - BackendRestarts additionally polishes the best candidates with a
//     bounded local search started from the NRestarts lowest-scoring
//     samples.
//   - BackendAuto picks BackendRestarts, unless the space contains a
//     categorical dimension, in which case local search is ill-defined and
//     BackendSampling is used.
//
// A space with categorical dimensions always forces sampling, whatever the
// configured backend.
type Backend string

// Available acquisition optimization backends.
const (
	BackendAuto     Backend = "auto"
	BackendSampling Backend = "sampling"
	BackendRestarts Backend = "restarts"
)

// Point is a single location in the search space, in decoded form: one
// element per dimension, holding float64 for Real, int for Integer and
// string for Categorical dimensions.
type Point []any

// Objective is the function being minimized. It receives a decoded point
// and returns the observed value. A returned error aborts the run
// immediately; the evaluation is never retried.
type Objective func(x Point) (float64, error)

// CostedObjective is the objective contract for the per-second strategies
// (StrategyEIps, StrategyPIps). Besides the observed value it reports how
// many seconds the evaluation took, so the optimizer can trade improvement
// against evaluation cost.
type CostedObjective func(x Point) (value, seconds float64, err error)

// Callback is invoked with the partial result after every recorded
// observation. Returning ErrEarlyStop terminates the run successfully with
// the partial result; any other error aborts the run.
type Callback func(partial *Result) error

// Space describes the search domain as a capability: draw random points,
// and map between decoded points and the numeric encoding the surrogate
// model works in. NewSpace builds the standard implementation; custom
// implementations only need to keep Encode and Decode inverses of each
// other.
type Space interface {
	// Sample draws n points from the space using the supplied generator.
	Sample(rng *rand.Rand, n int) []Point

	// Encode maps a decoded point to its numeric vector representation.
	Encode(x Point) []float64

	// Decode maps a numeric vector back to a decoded point.
	Decode(v []float64) Point

	// Bounds returns the box bounds of the encoded representation, one
	// [low, high] pair per encoded dimension.
	Bounds() [][2]float64

	// HasCategorical reports whether any dimension is categorical, which
	// forces the sampling backend.
	HasCategorical() bool
}

// Surrogate is the probabilistic regression model standing in for the
// expensive objective. Fit returns a new fitted instance and never mutates
// the receiver, so every snapshot kept in Result.Models stays consistent
// with the observations it was fit on.
type Surrogate interface {
	// Fit trains on encoded points X and observed values y, returning a
	// new fitted model. A model that cannot be fit (for example due to a
	// singular covariance) returns a *SurrogateFitError.
	Fit(X [][]float64, y []float64) (Surrogate, error)

	// Predict returns the predictive mean and standard deviation at the
	// encoded point x.
	Predict(x []float64) (mean, std float64)
}

// SurrogateFactory produces a fresh, unfitted surrogate model. The driver
// calls it once per refit so fitted snapshots are never aliased.
type SurrogateFactory func() Surrogate

// Observation is a single recorded evaluation: the decoded point, the
// observed value, the evaluation cost in seconds (zero unless a
// CostedObjective is used) and the zero-based call index. Immutable once
// recorded.
type Observation struct {
	// X is the decoded point that was evaluated.
	X Point

	// Value is the observed objective value at X.
	Value float64

	// Cost is the evaluation time in seconds, zero for plain objectives.
	Cost float64

	// Iteration is the zero-based index of this evaluation in the run.
	Iteration int
}

// Result accumulates the state of an optimization run. It is passed to
// callbacks as a partial snapshot after every observation and returned
// frozen when the run ends, whether by exhausting the budget, an early
// stop, or an error.
//
// Reproducibility: a run is fully determined by its seed, configuration
// and (deterministic) objective. Rng holds the generator in its final
// state so a follow-up run can continue the same random sequence.
type Result struct {
	// X is the best point found so far.
	X Point

	// Fun is the objective value at X.
	Fun float64

	// Observations is the full evaluation trace in call order.
	Observations []Observation

	// Models holds one fitted surrogate snapshot per guided iteration,
	// in iteration order.
	Models []Surrogate

	// Space is the search space the run was performed over.
	Space Space

	// Rng is the shared random generator in its final state.
	Rng *rand.Rand
}

// XIters returns the evaluated points in call order.
func (r *Result) XIters() []Point {
	xs := make([]Point, len(r.Observations))
	for i, o := range r.Observations {
		xs[i] = o.X
	}

	return xs
}

// FuncVals returns the observed objective values in call order.
func (r *Result) FuncVals() []float64 {
	ys := make([]float64, len(r.Observations))
	for i, o := range r.Observations {
		ys[i] = o.Value
	}

	return ys
}

// ProgressUpdate represents the state of the run after one evaluation.
// Updates are sent on OptimizationConfig.ProgressChan when set; sends never
// block, updates are dropped when the channel is full.
type ProgressUpdate struct {
	// Phase is "initial" during initial-point evaluation and "guided"
	// during model-guided iterations.
	Phase string

	// Call is the one-based index of the evaluation within the run.
	Call int

	// TotalCalls is the total evaluation budget of the run.
	TotalCalls int

	// X is the point that was just evaluated.
	X Point

	// Value is the objective value observed at X.
	Value float64

	// Best is the best objective value seen so far.
	Best float64
}

// OptimizationConfig holds all knobs of an optimization run.
//
// The evaluation budget works as follows. NCalls is the total number of
// objective evaluations. When X0 is given without Y0, the X0 points are
// evaluated first, then NRandomStarts random points, and the remaining
// NCalls - len(X0) - NRandomStarts calls are guided by the surrogate. When
// X0 and Y0 are both given the pairs count as free observations and only
// NCalls - NRandomStarts objective calls are made, NRandomStarts of them
// random. A budget that comes out negative is a *ConfigurationError,
// reported before any evaluation.
//
// Usage example:
//
//	config := DefaultConfig()
//	config.NCalls = 30
//	config.NRandomStarts = 8
//	config.Seed = 42
//
//	res, err := Minimize(config, objective, space)
type OptimizationConfig struct {
	// NCalls is the total number of objective evaluations.
	// Recommended range: 20-200.
	NCalls int

	// NRandomStarts is the number of uniformly random evaluations made
	// before the surrogate takes over. At least one random point is drawn
	// when no prior observations exist, even if this is zero.
	NRandomStarts int

	// X0 holds optional initial points to evaluate (or, together with Y0,
	// already-evaluated observations that cost no objective calls).
	X0 []Point

	// Y0 holds objective values for X0. Must be empty or match len(X0).
	Y0 []float64

	// Strategy selects the acquisition function. Default: StrategyHedge.
	Strategy Strategy

	// Backend selects how the acquisition function is minimized.
	// Default: BackendAuto.
	Backend Backend

	// NPoints is the number of random candidates scored per iteration.
	// Higher values = more thorough search but slower iterations.
	NPoints int

	// NRestarts is the number of local-search restarts used by
	// BackendRestarts.
	NRestarts int

	// NJobs caps the worker pool running local-search restarts in
	// parallel. Zero or negative means GOMAXPROCS.
	NJobs int

	// Kappa is the exploration weight of StrategyLCB. Higher values favor
	// exploration of uncertain regions.
	Kappa float64

	// Xi is the minimum improvement margin used by EI and PI.
	Xi float64

	// Eta is the softmax temperature of the hedge bandit.
	Eta float64

	// NewSurrogate produces the surrogate model. Nil means the built-in
	// Gaussian process.
	NewSurrogate SurrogateFactory

	// Seed seeds the run's random generator when Rng is nil. Two runs
	// with the same seed, configuration and deterministic objective
	// produce identical traces.
	Seed int64

	// Rng optionally supplies the generator directly. It is the single
	// source of randomness for the whole run and must not be shared with
	// concurrent runs.
	Rng *rand.Rand

	// Callbacks are invoked after every recorded observation.
	Callbacks []Callback

	// Logger receives per-evaluation progress when set. Nil disables
	// logging.
	Logger *slog.Logger

	// ProgressChan receives a ProgressUpdate after every evaluation.
	// If nil, no updates are sent.
	ProgressChan chan<- ProgressUpdate
}
