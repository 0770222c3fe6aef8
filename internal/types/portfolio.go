package types

// PortfolioEntry is one row of the portfolio table as stored in the vector index
type PortfolioEntry struct {
	ID        string   `json:"id"`
	TechStack string   `json:"techstack"`
	Links     []string `json:"links"`
}

// LinkMetadata is the metadata payload attached to a stored portfolio entry.
// The "links" key carries the entry's links as a single string.
type LinkMetadata map[string]string

// MetadataKeyLinks is the metadata key holding an entry's links
const MetadataKeyLinks = "links"

// LinkQueryResult holds one metadata set per queried skill, in query order
type LinkQueryResult [][]LinkMetadata

// Links flattens the result into a de-duplicated list of link strings,
// preserving first-seen order.
func (r LinkQueryResult) Links() []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range r {
		for _, meta := range set {
			link := meta[MetadataKeyLinks]
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			out = append(out, link)
		}
	}
	return out
}

// Draft is the outcome of the outreach pipeline for a single job posting
type Draft struct {
	Job   JobPosting      `json:"job"`
	Links LinkQueryResult `json:"links,omitempty"`
	Email string          `json:"email,omitempty"`
	Err   string          `json:"error,omitempty"`
}
