package bulkload

import "time"

// Stats accumulates counters over one load run. The invariant
// SuccessfulInserts + FailedInserts == ProcessedProducts holds once Run
// returns.
type Stats struct {
	// TotalProducts is the size of the input, before preprocessing.
	TotalProducts int

	// RejectedInvalid counts products dropped in preprocessing because they
	// failed re-validation.
	RejectedInvalid int

	// DuplicatesDropped counts products removed because an earlier product
	// in the same run carried the same code.
	DuplicatesDropped int

	// SkippedExisting counts products dropped because the store already
	// holds their code.
	SkippedExisting int

	// ProcessedProducts counts products that entered batch processing.
	ProcessedProducts int

	SuccessfulInserts int
	FailedInserts     int

	BatchesTotal     int
	BatchesSucceeded int
	BatchesFailed    int

	// Elapsed covers the whole run; Throughput is successful inserts per
	// second.
	Elapsed    time.Duration
	Throughput float64

	// PeakHeapBytes is the largest heap observed between batch chunks.
	PeakHeapBytes uint64
}

// QualityStatus classifies a post-load quality score.
type QualityStatus string

const (
	QualityPass QualityStatus = "pass"
	QualityWarn QualityStatus = "warn"
	QualityFail QualityStatus = "fail"
)

// Quality score thresholds.
const (
	qualityPassThreshold = 0.95
	qualityWarnThreshold = 0.90
)

// QualityReport scores the stored output of a run. Overall is the mean of
// the four component scores.
type QualityReport struct {
	// InsertSuccessRate is successful inserts over processed products.
	InsertSuccessRate float64

	// EmbeddingCoverage is the fraction of sampled stored products carrying
	// all three vectors.
	EmbeddingCoverage float64

	// MeanCompleteness averages the completeness score over the sample.
	MeanCompleteness float64

	// DuplicateControl is the fraction of the input that was not a
	// within-run duplicate. Duplicates are dropped, not stored, so this
	// measures input hygiene rather than store corruption.
	DuplicateControl float64

	// SampleSize is how many stored products the sample-based components
	// were computed from.
	SampleSize int

	Overall float64
	Status  QualityStatus

	// Issues names the component scores that dragged the run below the
	// pass threshold; Recommendations suggests the matching operator action.
	Issues          []string
	Recommendations []string
}

// classify maps an overall score to a status.
func classify(overall float64) QualityStatus {
	switch {
	case overall >= qualityPassThreshold:
		return QualityPass
	case overall >= qualityWarnThreshold:
		return QualityWarn
	default:
		return QualityFail
	}
}

// FailedBatch describes a batch surrendered to manual recovery.
type FailedBatch struct {
	// Index is the batch's position in the run, starting at 0.
	Index int

	// Codes lists the product codes in the batch.
	Codes []string

	// Reason is the final error after retries were exhausted.
	Reason string
}

// RecoveryManual is the recovery strategy reported when one or more batches
// exhausted their retries.
const RecoveryManual = "manual"

// Report is the outcome of one load run.
type Report struct {
	Stats   Stats
	Quality QualityReport

	// RecoveryStrategy is empty on a clean run, RecoveryManual otherwise.
	RecoveryStrategy string

	// FailedBatches lists the batches needing manual recovery.
	FailedBatches []FailedBatch
}
