package bayesopt

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration: 100 total evaluations, 10
// of them random, hedge acquisition over LCB/EI/PI, and the automatic
// acquisition backend.
func DefaultConfig() OptimizationConfig {
	return OptimizationConfig{
		NCalls:        100,
		NRandomStarts: 10,
		Strategy:      StrategyHedge,
		Backend:       BackendAuto,
		NPoints:       10000,
		NRestarts:     5,
		Kappa:         1.96,
		Xi:            0.01,
		Eta:           1.0,
		NewSurrogate:  func() Surrogate { return NewGaussianProcess() },
	}
}

// Minimize runs sequential model-based optimization of an expensive
// objective over the given search space.
//
// Each evaluation of the objective is assumed to be costly, so the number
// of evaluations is kept to config.NCalls: a handful of initial points
// (user-supplied X0 and/or uniformly random draws), then model-guided
// iterations. Every guided iteration refits the surrogate on all
// observations so far, minimizes the acquisition function over the space
// to pick the most promising candidate, evaluates the objective there and
// records the outcome.
//
// Usage example:
//
//	space, _ := NewSpace(Real{Low: -2, High: 2})
//
//	objective := func(x Point) (float64, error) {
//	    v := x[0].(float64)
//	    return v * v, nil
//	}
//
//	config := DefaultConfig()
//	config.NCalls = 20
//	config.NRandomStarts = 5
//	config.Seed = 1
//
//	res, err := Minimize(config, objective, space)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.X, res.Fun)
//
// Error semantics:
//   - An invalid configuration returns a *ConfigurationError before any
//     evaluation happens.
//   - An error from the objective aborts the run immediately, wrapped in a
//     *ObjectiveError; the evaluation is never retried.
//   - A surrogate that cannot be fit aborts with a *SurrogateFitError.
//   - In both abort cases the partial result is returned alongside the
//     error, so the costly observations made so far stay queryable.
//   - A callback returning ErrEarlyStop terminates the run successfully
//     with the partial result and a nil error.
//
// The per-second strategies (StrategyEIps, StrategyPIps) need observed
// evaluation times and are rejected here; use MinimizeWithCost for those.
func Minimize(config OptimizationConfig, objective Objective, space Space) (*Result, error) {
	if config.Strategy.perSecond() {
		return nil, configErrorf("strategy %q requires a costed objective; use MinimizeWithCost", config.Strategy)
	}

	eval := func(x Point) (float64, float64, error) {
		v, err := objective(x)

		return v, 0, err
	}

	return minimize(&config, eval, space, false)
}

// MinimizeWithCost is Minimize for objectives that report their own
// evaluation time in seconds. The observed times feed a second surrogate
// so the per-second strategies (StrategyEIps, StrategyPIps) can trade
// expected improvement against expected evaluation cost. StrategyHedge
// arbitrates over LCB, EIps and PIps in this mode.
func MinimizeWithCost(config OptimizationConfig, objective CostedObjective, space Space) (*Result, error) {
	return minimize(&config, objective, space, true)
}

//////
// Unexported functionalities.
//////

// run carries the state of one optimization run through its phases.
type run struct {
	cfg    *OptimizationConfig
	space  Space
	eval   CostedObjective
	costed bool
	rng    *rand.Rand

	optimizer  *acqOptimizer
	strategies []Strategy
	hedge      *hedgeBandit

	res    *Result
	nEvals int

	// nRandom is the resolved number of random initial points, after the
	// lower bound of one seeding point has been applied.
	nRandom int
}

// minimize validates the configuration, resolves the initial-point policy
// and drives the optimization loop to completion.
func minimize(cfg *OptimizationConfig, eval CostedObjective, space Space, costed bool) (*Result, error) {
	normalize(cfg)

	r := &run{
		cfg:       cfg,
		space:     space,
		eval:      eval,
		costed:    costed,
		optimizer: newAcqOptimizer(cfg),
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	rng := cfg.Rng
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		rng = rand.New(rand.NewSource(seed))
	}

	r.rng = rng

	r.res = &Result{
		Fun:   math.Inf(1),
		Space: space,
		Rng:   rng,
	}

	r.strategies = baseStrategies(cfg.Strategy, costed)
	if cfg.Strategy == StrategyHedge {
		r.hedge = newHedgeBandit(len(r.strategies), cfg.Eta)
	}

	if err := r.initialPoints(); err != nil {
		return r.finish(err)
	}

	return r.finish(r.guidedLoop())
}

// normalize fills zero-valued knobs with the DefaultConfig values so a
// sparsely populated literal behaves sensibly.
func normalize(cfg *OptimizationConfig) {
	def := DefaultConfig()

	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}

	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}

	if cfg.NPoints <= 0 {
		cfg.NPoints = def.NPoints
	}

	if cfg.NRestarts <= 0 {
		cfg.NRestarts = def.NRestarts
	}

	if cfg.Kappa == 0 {
		cfg.Kappa = def.Kappa
	}

	if cfg.Xi == 0 {
		cfg.Xi = def.Xi
	}

	if cfg.Eta == 0 {
		cfg.Eta = def.Eta
	}

	if cfg.NewSurrogate == nil {
		cfg.NewSurrogate = def.NewSurrogate
	}
}

// baseStrategies resolves the strategy tag into the list of strategies
// proposing candidates each iteration. Hedge expands to its base set,
// using the per-second variants when evaluation times are observed.
func baseStrategies(s Strategy, costed bool) []Strategy {
	if s != StrategyHedge {
		return []Strategy{s}
	}

	if costed {
		return []Strategy{StrategyLCB, StrategyEIps, StrategyPIps}
	}

	return []Strategy{StrategyLCB, StrategyEI, StrategyPI}
}

// validate performs all fail-fast configuration checks, before the first
// objective evaluation. It also resolves the random-start lower bound:
// when no initial observations would exist at all, a single random point
// seeds the surrogate.
func (r *run) validate() error {
	cfg := r.cfg

	if r.space == nil {
		return configErrorf("search space is required")
	}

	if r.eval == nil {
		return configErrorf("objective is required")
	}

	if cfg.NCalls <= 0 {
		return configErrorf("NCalls must be positive, got %d", cfg.NCalls)
	}

	if cfg.NRandomStarts < 0 {
		return configErrorf("NRandomStarts must not be negative, got %d", cfg.NRandomStarts)
	}

	if len(cfg.Y0) > 0 && len(cfg.X0) == 0 {
		return configErrorf("Y0 given without X0")
	}

	if len(cfg.Y0) > 0 && len(cfg.Y0) != len(cfg.X0) {
		return configErrorf("X0 and Y0 lengths differ: %d vs %d", len(cfg.X0), len(cfg.Y0))
	}

	switch cfg.Strategy {
	case StrategyLCB, StrategyEI, StrategyPI, StrategyEIps, StrategyPIps, StrategyHedge:
	default:
		return configErrorf("unknown strategy %q", cfg.Strategy)
	}

	switch cfg.Backend {
	case BackendAuto, BackendSampling, BackendRestarts:
	default:
		return configErrorf("unknown backend %q", cfg.Backend)
	}

	if checker, ok := r.space.(interface{ CheckPoint(Point) error }); ok {
		for i, x := range cfg.X0 {
			if err := checker.CheckPoint(x); err != nil {
				return configErrorf("X0[%d]: %v", i, err)
			}
		}
	}

	r.nRandom = cfg.NRandomStarts

	// Prior observations come from X0, evaluated or pre-evaluated. With
	// none at all, at least one random point must seed the surrogate.
	if len(cfg.X0) == 0 && r.nRandom == 0 {
		r.nRandom = 1
	}

	evaluatedX0 := 0
	if len(cfg.Y0) == 0 {
		evaluatedX0 = len(cfg.X0)
	}

	guided := cfg.NCalls - evaluatedX0 - r.nRandom
	if guided < 0 {
		return configErrorf(
			"budget exhausted before any guided call: NCalls=%d, initial points=%d, random starts=%d",
			cfg.NCalls, evaluatedX0, r.nRandom)
	}

	return nil
}

// initialPoints resolves and records the initial observations: X0 points
// (evaluated unless Y0 supplies their values), then the random starts.
// All draws come from the run's shared generator.
func (r *run) initialPoints() error {
	cfg := r.cfg

	if len(cfg.Y0) > 0 {
		// Pre-evaluated pairs cost no objective calls.
		for i, x := range cfg.X0 {
			if err := r.record(x, cfg.Y0[i], 0, "initial"); err != nil {
				return err
			}
		}
	} else {
		for _, x := range cfg.X0 {
			if err := r.evalAndRecord(x, "initial"); err != nil {
				return err
			}
		}
	}

	for _, x := range r.space.Sample(r.rng, r.nRandom) {
		if err := r.evalAndRecord(x, "initial"); err != nil {
			return err
		}
	}

	return nil
}

// guidedLoop runs model-guided iterations until the evaluation budget is
// exhausted. Each iteration refits the surrogate on every observation
// recorded so far, proposes a candidate by minimizing the acquisition
// function, and evaluates the objective there. The refit strictly
// precedes the proposal, so no iteration ever sees its own pending
// evaluation.
func (r *run) guidedLoop() error {
	cfg := r.cfg

	needCost := false

	for _, s := range r.strategies {
		if s.perSecond() {
			needCost = true
		}
	}

	for r.nEvals < cfg.NCalls {
		X := encodePoints(r.space, r.res.XIters())
		y := r.res.FuncVals()

		model, err := cfg.NewSurrogate().Fit(X, y)
		if err != nil {
			return err
		}

		r.res.Models = append(r.res.Models, model)

		var costModel Surrogate

		if needCost {
			costs := make([]float64, len(r.res.Observations))
			for i, o := range r.res.Observations {
				costs[i] = o.Cost
			}

			costModel, err = cfg.NewSurrogate().Fit(X, logCosts(costs))
			if err != nil {
				return err
			}
		}

		if r.hedge != nil {
			r.hedge.update(model)
		}

		winner := r.nextProposal(model, costModel)

		if err := r.evalAndRecord(r.space.Decode(winner.x), "guided"); err != nil {
			return err
		}
	}

	return nil
}

// nextProposal obtains the iteration's winning candidate: one proposal per
// active strategy, arbitrated by the hedge bandit when more than one is
// active. Proposals run sequentially because the shared generator must
// never be drawn from concurrently; parallelism lives inside each
// proposal's restart pool.
func (r *run) nextProposal(model, costModel Surrogate) proposal {
	cfg := r.cfg

	proposals := make([]proposal, len(r.strategies))

	for i, s := range r.strategies {
		acq := acquisition{
			strategy:  s,
			kappa:     cfg.Kappa,
			xi:        cfg.Xi,
			best:      r.res.Fun,
			model:     model,
			costModel: costModel,
		}

		proposals[i] = r.optimizer.propose(r.space, acq, r.rng)
	}

	if r.hedge != nil {
		return r.hedge.choose(proposals, r.rng)
	}

	return proposals[0]
}

// evalAndRecord invokes the objective at x and records the observation.
// An objective error propagates immediately, wrapped with the triggering
// point; nothing partial is ever recorded for a failed evaluation.
func (r *run) evalAndRecord(x Point, phase string) error {
	value, seconds, err := r.eval(x)
	if err != nil {
		return &ObjectiveError{X: x, Err: err}
	}

	r.nEvals++

	return r.record(x, value, seconds, phase)
}

// record appends an observation, updates the best-so-far pair, emits
// progress and runs the callbacks against the partial result.
func (r *run) record(x Point, value, cost float64, phase string) error {
	res := r.res

	obs := Observation{
		X:         x,
		Value:     value,
		Cost:      cost,
		Iteration: len(res.Observations),
	}

	res.Observations = append(res.Observations, obs)

	if value < res.Fun {
		res.Fun = value
		res.X = x
	}

	if r.cfg.Logger != nil {
		r.cfg.Logger.Info("evaluation",
			"phase", phase,
			"call", obs.Iteration+1,
			"value", value,
			"best", res.Fun,
		)
	}

	if r.cfg.ProgressChan != nil {
		update := ProgressUpdate{
			Phase:      phase,
			Call:       obs.Iteration + 1,
			TotalCalls: r.cfg.NCalls,
			X:          x,
			Value:      value,
			Best:       res.Fun,
		}

		select {
		case r.cfg.ProgressChan <- update:
		default:
			// Skip update if channel is full.
		}
	}

	for _, cb := range r.cfg.Callbacks {
		if err := cb(res); err != nil {
			return err
		}
	}

	return nil
}

// finish maps the loop outcome to the public contract: an early stop is a
// successful termination, every other error is surfaced together with the
// partial result.
func (r *run) finish(err error) (*Result, error) {
	if err != nil && !errors.Is(err, ErrEarlyStop) {
		return r.res, err
	}

	return r.res, nil
}
