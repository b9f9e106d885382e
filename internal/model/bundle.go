package model

// PipelineState tracks where a search execution is in its lifecycle.
type PipelineState string

const (
	StateIdle        PipelineState = "idle"
	StateSearching   PipelineState = "searching"
	StateScoring     PipelineState = "scoring"
	StateEnriching   PipelineState = "enriching"
	StateSummarizing PipelineState = "summarizing"
	StateDone        PipelineState = "done"
	StateError       PipelineState = "error"
)

// SearchResultBundle is the final output of one search execution.
// Featured and Popular are independently selected top-3 subsets of Results
// and may overlap.
type SearchResultBundle struct {
	RunID     string           `json:"run_id"`
	Query     string           `json:"query"`
	Intent    QueryIntent      `json:"intent"`
	Results   []CampsiteRecord `json:"results"`
	Featured  []CampsiteRecord `json:"featured"`
	Popular   []CampsiteRecord `json:"popular"`
	Summary   string           `json:"summary"`
	State     PipelineState    `json:"state"`
	Sources   []string         `json:"sources"`
	ElapsedMS int64            `json:"elapsed_ms"`
}
