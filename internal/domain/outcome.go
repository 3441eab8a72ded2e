package domain

// Stage enumerates the per-article pipeline states.
type Stage string

const (
	StageSearching    Stage = "searching"
	StageScrapingRefs Stage = "scraping_refs"
	StageEnhancing    Stage = "enhancing"
	StageCiting       Stage = "citing"
	StageSaving       Stage = "saving"
	StageDone         Stage = "done"
	StageSkipped      Stage = "skipped"
)

// SkipReason explains why an article left the pipeline early.
type SkipReason string

const (
	SkipNoSearchResults SkipReason = "no search results"
	SkipScrapingFailed  SkipReason = "scraping failed"
	SkipAIFailed        SkipReason = "AI failed"
	SkipSaveFailed      SkipReason = "save failed"
	SkipAlreadyEnhanced SkipReason = "already enhanced"
)

// Outcome is the terminal state of one article run. A skipped run records
// the stage it left from in FailedAt.
type Outcome struct {
	ArticleID string
	Title     string
	Stage     Stage
	FailedAt  Stage
	Reason    SkipReason
	Enhanced  *EnhancedArticle
}

// Done reports whether the run reached the DONE state.
func (o Outcome) Done() bool {
	return o.Stage == StageDone
}

// BatchReport aggregates outcomes of a batch run.
type BatchReport struct {
	Processed int
	Succeeded int
	Skipped   []Outcome
}

// Failed is the number of skipped articles.
func (r BatchReport) Failed() int {
	return len(r.Skipped)
}

// HarvestReport aggregates one harvesting pass over a site.
type HarvestReport struct {
	Site       string
	LastPage   int
	Discovered int
	Created    int
	Duplicates int
	Discarded  int
}
