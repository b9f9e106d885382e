package model

// PriorityWeights ranks the three intent categories on a 0-10 scale.
type PriorityWeights struct {
	Location   int `json:"location"`
	Features   int `json:"features"`
	Facilities int `json:"facilities"`
}

// QueryIntent is the structured interpretation of one free-text query.
// It lives for a single search execution.
type QueryIntent struct {
	StructuredQuery string          `json:"structured_query"`
	LocationHint    string          `json:"location"`
	Features        []string        `json:"features"`
	Facilities      []string        `json:"facilities"`
	Priorities      PriorityWeights `json:"priorities"`
}
