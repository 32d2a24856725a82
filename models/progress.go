package models

// Stage is a step of the feed generation state machine
type Stage string

const (
	StageValidating  Stage = "validating"
	StageDiscovering Stage = "discovering"
	StageComposing   Stage = "composing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// PipelineProgress is the transient status of a running generation
type PipelineProgress struct {
	Stage     Stage   `json:"stage"`
	Fraction  float64 `json:"fraction"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Preview   string  `json:"preview,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Terminal reports whether no further progress will follow
func (p PipelineProgress) Terminal() bool {
	return p.Stage == StageDone || p.Stage == StageFailed
}
