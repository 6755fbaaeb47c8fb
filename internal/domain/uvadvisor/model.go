package uvadvisor

import "github.com/yanqian/uv-australia/internal/domain/uvindex"

// Request captures the stateless recommendation query.
type Request struct {
	UV       string `form:"uv" json:"uv"`
	SkinType int    `form:"skinType" json:"skinType"`
}

// Advice is the personalised panel for one reading and phototype.
type Advice struct {
	Reading        uvindex.Derived `json:"reading"`
	SkinType       PhototypeInfo   `json:"skinType"`
	Recommendation Recommendation  `json:"recommendation"`
	Summary        string          `json:"summary"`
	SummarySource  string          `json:"summarySource"`
}

const (
	SummarySourceRules = "rules"
	SummarySourceLLM   = "llm"
)

// Config wires runtime dependencies for the advisor domain.
type Config struct {
	NarrativeEnabled bool
	Model            string
	Temperature      float32
	Prompt           string
}
