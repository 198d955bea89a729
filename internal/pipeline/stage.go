package pipeline

import (
	"fmt"
)

// Stage names a step of a pipeline run.
type Stage int

const (
	StageStart Stage = iota
	StageTiltDetected
	StageDeskewed
	StageSkipped
	StageNormalized
	StagePlanned
	StagePreprocessed
	StageRecognized
	StageAggregated
)

var stageNames = map[Stage]string{
	StageStart:        "start",
	StageTiltDetected: "tilt-detected",
	StageDeskewed:     "deskewed",
	StageSkipped:      "skipped",
	StageNormalized:   "normalized",
	StagePlanned:      "planned",
	StagePreprocessed: "preprocessed",
	StageRecognized:   "recognized",
	StageAggregated:   "aggregated",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// StageError is the fatal error ending a run. Stage is the last state the run
// reached before failing.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
