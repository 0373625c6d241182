package domain

// DomainContext is inferred subject-matter metadata used to tailor
// presentation. Entirely advisory; never gates session progress.
type DomainContext struct {
	Domain         string `json:"domain"`
	ExpertRole     string `json:"expert_role"`
	ResearchFocus  string `json:"research_focus"`
	HypothesisType string `json:"hypothesis_type"`
}

// DefaultDomainContext is substituted whenever inference fails.
func DefaultDomainContext() DomainContext {
	return DomainContext{
		Domain:         "general",
		ExpertRole:     "scientific researcher",
		ResearchFocus:  "scientific research",
		HypothesisType: "research hypothesis",
	}
}
