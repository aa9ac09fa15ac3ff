package model

import "time"

// Report is the complete result of one evaluation call
type Report struct {
	Experiment  string    `json:"experiment"`       // Experiment name (e.g., "roberta-base-icecat")
	Dataset     string    `json:"dataset"`          // Dataset whose taxonomy was used
	Source      string    `json:"source,omitempty"` // Predictions file, if any
	EvaluatedAt time.Time `json:"evaluated_at"`     // When the evaluation ran
	Examples    int       `json:"examples"`         // Number of aligned truth/prediction pairs
	Beta        float64   `json:"beta"`             // Beta used for the hierarchical F-score

	Metrics      Metrics            `json:"metrics"`      // The five headline scores
	Flat         FlatScores         `json:"flat"`         // Flat scores with per-class breakdown
	Hierarchical HierarchicalScores `json:"hierarchical"` // Ancestor-propagated scores and counts

	Signals []Signal `json:"signals,omitempty"` // Diagnostic signals with transparent data
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Inputs and formula behind the signal
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalPartialCredit     SignalType = "partial_credit"     // Misses that still share an ancestor with the truth
	SignalUnseenPredictions SignalType = "unseen_predictions" // Predicted classes absent from the truth
	SignalHierarchyGap      SignalType = "hierarchy_gap"      // h_f1 relative to flat weighted F1
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
