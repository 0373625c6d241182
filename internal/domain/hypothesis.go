package domain

// Citation is one literature source attached to a hypothesis. Immutable
// once attached; field set matches what the literature search emits.
type Citation struct {
	Title          string   `json:"title"`
	URL            string   `json:"url,omitempty"`
	Authors        []string `json:"authors,omitempty"`
	Journal        string   `json:"journal,omitempty"`
	Year           string   `json:"year,omitempty"`
	Abstract       string   `json:"abstract,omitempty"`
	PMID           string   `json:"pmid,omitempty"`
	DOI            string   `json:"doi,omitempty"`
	Source         string   `json:"source,omitempty"`
	SearchStrategy string   `json:"search_strategy,omitempty"`
}

// Hypothesis is a candidate research statement plus its evolving quality
// metadata. Processing stays true from generation until reflection supplies
// a review and score, or until a ranking update replaces the collection.
type Hypothesis struct {
	ID                string     `json:"id"`
	Content           string     `json:"content"`
	Iteration         int        `json:"iteration"`
	Score             float64    `json:"score"`
	Review            string     `json:"review,omitempty"`
	Rank              *int       `json:"rank,omitempty"`
	LiteratureSources []Citation `json:"literature_sources,omitempty"`
	Processing        bool       `json:"is_processing"`
}

// Ready reports whether the hypothesis is fully reviewed and scored.
// A zero score means reflection has not scored it yet.
func (h Hypothesis) Ready() bool {
	return !h.Processing && h.Review != "" && h.Score != 0
}
