package bandit

type Config struct {
	// Prior pseudo-counts for projects that have never earned a reward.
	AlphaPrior float64
	BetaPrior  float64

	// Blend weights for exploit scoring.
	SimilarityWeight float64
	BanditWeight     float64

	// Per-candidate probability of taking a pure Thompson sample.
	ExplorationRate float64
}

const (
	defaultAlphaPrior       = 2.0
	defaultBetaPrior        = 2.0
	defaultSimilarityWeight = 0.7
	defaultBanditWeight     = 0.3
	defaultExplorationRate  = 0.15
)

func DefaultConfig() Config {
	return Config{
		AlphaPrior:       defaultAlphaPrior,
		BetaPrior:        defaultBetaPrior,
		SimilarityWeight: defaultSimilarityWeight,
		BanditWeight:     defaultBanditWeight,
		ExplorationRate:  defaultExplorationRate,
	}
}
