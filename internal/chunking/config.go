package chunking

// ChunkerConfig replaces the keyword-argument bags of earlier iterations with
// explicit fields. Sizes are in characters.
type ChunkerConfig struct {
	// TargetSize is the preferred chunk length; boundaries are searched near
	// a sliding target at this distance.
	TargetSize int
	// MinSize is the smallest chunk emitted, except for a final short
	// section or document.
	MinSize int
	// MaxSize is the largest chunk emitted, except when a single protected
	// region exceeds it.
	MaxSize int
	// OverlapSize is the number of trailing characters repeated at the head
	// of the next chunk when the boundary is not a structural one.
	OverlapSize int

	PreserveMath        bool
	PreserveDefinitions bool
	PreserveExamples    bool

	// ThreadSafe guards the controller's global statistics with a mutex.
	ThreadSafe bool
	// MaxWorkers bounds batch parallelism.
	MaxWorkers int
}

func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		TargetSize:          1000,
		MinSize:             200,
		MaxSize:             2000,
		OverlapSize:         100,
		PreserveMath:        true,
		PreserveDefinitions: true,
		PreserveExamples:    true,
		ThreadSafe:          true,
		MaxWorkers:          4,
	}
}

// DetectorConfig tunes the structure detector and its validity predicate.
type DetectorConfig struct {
	MinChapters      int
	QualityThreshold float64
	// StrategyThreshold is the assessor's content-aware cutoff; scores within
	// 0.1 of it select the hybrid strategy.
	StrategyThreshold float64
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinChapters:       3,
		QualityThreshold:  0.5,
		StrategyThreshold: 0.5,
	}
}
