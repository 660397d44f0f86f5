package synthesis

// Framework types in playbook order.
var TypeOrder = []string{
	"process_framework",
	"model_framework",
	"decision_framework",
	"measurement_framework",
	"scaling_framework",
	"engagement_framework",
}

// TypeRank returns the position of t in TypeOrder, or len(TypeOrder) for
// unknown types so they sort last.
func TypeRank(t string) int {
	for i, known := range TypeOrder {
		if known == t {
			return i
		}
	}
	return len(TypeOrder)
}

// Candidate is one framework mention found by discovery.
type Candidate struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Confidence       float64  `json:"confidence"`
	Description      string   `json:"description"`
	Components       []string `json:"components"`
	EvidenceQuote    string   `json:"evidence_quote"`
	SourceTranscript string   `json:"source_transcript,omitempty"`
	SourceDate       string   `json:"source_date,omitempty"`
}

type discoveryResponse struct {
	Frameworks []Candidate `json:"frameworks"`
}

// Component is one building block of a synthesized framework.
type Component struct {
	Name            string   `json:"name"`
	Purpose         string   `json:"purpose"`
	KeyActivities   []string `json:"key_activities,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
	CommonPitfalls  []string `json:"common_pitfalls,omitempty"`
}

// Evidence is the support attached by the evidence pass.
type Evidence struct {
	Quotes      []string `json:"quotes"`
	CaseStudies []string `json:"case_studies"`
	Metrics     []string `json:"metrics"`
}

// DecisionPoint is a recurring choice within a framework.
type DecisionPoint struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Criteria string   `json:"criteria,omitempty"`
}

// Actionability is the implementation guidance from pass 4.
type Actionability struct {
	DecisionTree            string          `json:"decision_tree"`
	ImplementationChecklist []string        `json:"implementation_checklist"`
	DecisionPoints          []DecisionPoint `json:"decision_points,omitempty"`
	RiskMitigation          []string        `json:"risk_mitigation,omitempty"`
}

// Framework is a synthesized framework with everything later passes add.
type Framework struct {
	Name                string      `json:"framework_name"`
	Type                string      `json:"framework_type"`
	Definition          string      `json:"definition"`
	CorePrinciple       string      `json:"core_principle,omitempty"`
	Components          []Component `json:"components"`
	WhenToUse           string      `json:"when_to_use,omitempty"`
	WhenNotToUse        string      `json:"when_not_to_use,omitempty"`
	ImplementationSteps []string    `json:"implementation_steps,omitempty"`
	DecisionLogic       string      `json:"decision_logic,omitempty"`
	SuccessMetrics      []string    `json:"success_metrics,omitempty"`

	EvidenceSources int      `json:"evidence_sources"`
	Confidence      float64  `json:"confidence"`
	SourceDates     []string `json:"source_dates"`
	// EvidenceQuotes are the raw quotes of the cluster the framework came from.
	EvidenceQuotes []string `json:"evidence_quotes,omitempty"`

	SupportingEvidence *Evidence      `json:"supporting_evidence,omitempty"`
	Actionability      *Actionability `json:"actionability,omitempty"`
	ActionabilityError string         `json:"actionability_error,omitempty"`
}

// NeedsActionability reports whether pass 4 has not produced guidance yet.
func (f Framework) NeedsActionability() bool {
	return f.Actionability == nil
}
