// Package bayesopt provides sequential model-based (Bayesian) minimization
// of expensive black-box functions over mixed continuous, integer and
// categorical search spaces. It is aimed at objectives where every
// evaluation is costly, so compute is spent on a cheap probabilistic
// surrogate instead of on the objective itself.
//
// # Features
//
// The package includes the following key features:
//
//   - Gaussian process surrogate: predictive mean and uncertainty for any
//     candidate point, refit on every observation
//   - Multiple acquisition strategies: Lower Confidence Bound (LCB),
//     Expected Improvement (EI), Probability of Improvement (PI) and their
//     per-second variants for time-aware optimization
//   - Hedge arbitration: an adaptive softmax bandit mixing LCB, EI and PI
//     by their historical performance
//   - Two acquisition backends: pure random sampling, or sampling followed
//     by restarted bounded local searches run on a worker pool
//   - Mixed search spaces: Real, Integer and Categorical dimensions with a
//     normalized numeric encoding for the surrogate
//   - Reproducibility: a single seeded generator threads through the whole
//     run; identical seeds produce identical evaluation traces
//   - Progress monitoring: structured logging and non-blocking channel
//     updates after every evaluation
//   - Early stopping: cooperative termination through callbacks
//
// # Quick start
//
//	space, err := bayesopt.NewSpace(bayesopt.Real{Low: -2, High: 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	objective := func(x bayesopt.Point) (float64, error) {
//	    v := x[0].(float64)
//	    return (v - 0.5) * (v - 0.5), nil
//	}
//
//	config := bayesopt.DefaultConfig()
//	config.NCalls = 25
//	config.NRandomStarts = 8
//	config.Seed = 42
//
//	res, err := bayesopt.Minimize(config, objective, space)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("minimum %.4f at %v\n", res.Fun, res.X)
//
// # Choosing a strategy
//
// All strategies score candidates on a lower-is-better scale.
//
// 1. Lower Confidence Bound (LCB):
//
//   - Mean minus Kappa standard deviations
//
//   - Direct control over the exploration-exploitation trade-off
//
//     config.Strategy = bayesopt.StrategyLCB
//     config.Kappa = 1.96
//
// 2. Expected Improvement (EI):
//
//   - Balances how likely and how large an improvement might be
//
//   - The most commonly used choice in practice
//
//     config.Strategy = bayesopt.StrategyEI
//     config.Xi = 0.01
//
// 3. Probability of Improvement (PI):
//
//   - Conservative; rewards reliable small improvements
//
//     config.Strategy = bayesopt.StrategyPI
//
// 4. Hedge (default):
//
//   - Runs LCB, EI and PI side by side and adaptively weights them by
//     their past performance; a robust default when the best single
//     strategy is unknown
//
//     config.Strategy = bayesopt.StrategyHedge
//     config.Eta = 1.0
//
// When the objective reports its own evaluation time, MinimizeWithCost
// enables the per-second variants (StrategyEIps, StrategyPIps), which
// divide the improvement signal by the predicted evaluation cost.
//
// # Reproducibility
//
// Set OptimizationConfig.Seed (or supply Rng directly) for deterministic
// runs. The generator is the single source of randomness: initial random
// draws, candidate sampling and hedge arbitration all consume it in a
// fixed order, and Result.Rng exposes its final state for exact
// resumption.
package bayesopt
