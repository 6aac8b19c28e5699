package bayesopt

import "math/rand"

//////
// Const, vars, types.
//////

// hedgeBandit arbitrates between several base acquisition strategies. Each
// guided iteration every base strategy proposes its own candidate; the
// bandit picks the winner by sampling from softmax(eta * gains) and, once
// the surrogate has been refit on the outcome, rewards the strategies
// whose proposals the new model considers good.
//
// The gain vector is the bandit's only memory: all-zero at run start, one
// entry per base strategy, updated incrementally and never reset.
type hedgeBandit struct {
	eta   float64
	gains []float64

	// Proposals from the previous iteration, pending a gain update once
	// the surrogate has been refit.
	pending []proposal
}

//////
// Methods.
//////

// update applies the gain rule for the previous iteration's proposals
// using the freshly refit surrogate: each strategy's gain is reduced by
// the model's predicted mean at that strategy's own proposal. Under the
// minimization convention a lower predicted mean leaves relatively more
// gain behind, so strategies whose proposals look good in hindsight gather
// weight. No-op before the first proposals exist.
func (h *hedgeBandit) update(model Surrogate) {
	for i, p := range h.pending {
		mean, _ := model.Predict(p.x)

		h.gains[i] -= mean
	}

	h.pending = nil
}

// choose picks the winning proposal by sampling the categorical
// distribution softmax(eta * gains) with a single draw from the shared
// generator, and stores the full proposal set for the next gain update.
func (h *hedgeBandit) choose(proposals []proposal, rng *rand.Rand) proposal {
	h.pending = proposals

	probs := softmax(h.eta, h.gains)

	return proposals[sampleIndex(rng.Float64(), probs)]
}

//////
// Factory.
//////

// newHedgeBandit builds a bandit arbitrating between nStrategies base
// strategies with an all-zero gain vector.
func newHedgeBandit(nStrategies int, eta float64) *hedgeBandit {
	return &hedgeBandit{
		eta:   eta,
		gains: make([]float64, nStrategies),
	}
}
