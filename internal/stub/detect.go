package stub

import (
	"strings"

	"github.com/cosci-dev/cosci/internal/domain"
)

var domainKeywords = []struct {
	domain string
	focus  string
	words  []string
}{
	{"physics", "theoretical and experimental physics", []string{"quantum", "particle", "relativity", "photon", "gravitational"}},
	{"chemistry", "chemical synthesis and reaction mechanisms", []string{"molecule", "chemical", "reaction", "catalyst", "compound", "synthesis"}},
	{"computer_science", "computational methods and algorithms", []string{"algorithm", "machine learning", "neural network", "software", "computational"}},
	{"biology", "molecular and cellular biology", []string{"cell", "protein", "gene", "organism", "disease", "cancer", "drug", "enzyme", "neuron"}},
	{"environmental_science", "environmental impact and ecological systems", []string{"ecosystem", "pollution", "sustainability", "biodiversity"}},
	{"climate_science", "climate change and atmospheric science", []string{"climate", "warming", "carbon", "atmospheric", "greenhouse"}},
}

// DetectDomain classifies a research question with a keyword heuristic and
// returns the matching context, or the generic default when nothing hits.
func DetectDomain(question string) domain.DomainContext {
	q := strings.ToLower(question)
	for _, dk := range domainKeywords {
		for _, w := range dk.words {
			if strings.Contains(q, w) {
				role := strings.ReplaceAll(dk.domain, "_", " ") + " researcher"
				return domain.DomainContext{
					Domain:         dk.domain,
					ExpertRole:     role,
					ResearchFocus:  dk.focus,
					HypothesisType: strings.ReplaceAll(dk.domain, "_", " ") + " hypothesis",
				}
			}
		}
	}
	return domain.DefaultDomainContext()
}
