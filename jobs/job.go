package jobs

import (
	"fmt"
	"time"
)

// Stage is a named phase of a job's lifecycle.
type Stage string

const (
	StagePending    Stage = "PENDING"
	StageScraping   Stage = "SCRAPING"
	StageAnalyzing  Stage = "ANALYZING"
	StageGenerating Stage = "GENERATING"
	StageSuccess    Stage = "SUCCESS"
	StageFailure    Stage = "FAILURE"
)

// stageRank fixes the forward order of the lifecycle. Terminal stages share
// the highest rank; FAILURE is reachable from any non-terminal stage.
var stageRank = map[Stage]int{
	StagePending:    0,
	StageScraping:   1,
	StageAnalyzing:  2,
	StageGenerating: 3,
	StageSuccess:    4,
	StageFailure:    4,
}

// Job is one asynchronous pipeline invocation. It is a value type: every
// transition returns a fresh snapshot, the previous one is never mutated.
type Job struct {
	ID          string    `json:"job_id"`
	ProfileName string    `json:"profile_name"`
	Topic       string    `json:"topic"`
	Stage       Stage     `json:"state"`
	Status      string    `json:"status"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New creates a job in the PENDING stage.
func New(id, profileName, topic string) Job {
	now := time.Now().UTC()
	return Job{
		ID:          id,
		ProfileName: profileName,
		Topic:       topic,
		Stage:       StagePending,
		Status:      "Pending...",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Terminal reports whether the job has reached SUCCESS or FAILURE.
func (j Job) Terminal() bool {
	return j.Stage == StageSuccess || j.Stage == StageFailure
}

// Advance returns a snapshot moved to the next non-terminal stage. The
// lifecycle only moves forward one stage at a time; terminal jobs and
// regressions are rejected.
func (j Job) Advance(next Stage, status string) (Job, error) {
	if j.Terminal() {
		return j, fmt.Errorf("job %s is terminal in stage %s, cannot advance to %s", j.ID, j.Stage, next)
	}
	if next == StageSuccess || next == StageFailure {
		return j, fmt.Errorf("use Succeed or Fail for terminal transitions, not Advance to %s", next)
	}
	if stageRank[next] != stageRank[j.Stage]+1 {
		return j, fmt.Errorf("illegal transition %s -> %s for job %s", j.Stage, next, j.ID)
	}

	out := j
	out.Stage = next
	out.Status = status
	out.UpdatedAt = time.Now().UTC()
	return out, nil
}

// Succeed returns a terminal SUCCESS snapshot carrying the generated script.
// Only a job in GENERATING can succeed.
func (j Job) Succeed(script string) (Job, error) {
	if j.Stage != StageGenerating {
		return j, fmt.Errorf("job %s cannot succeed from stage %s", j.ID, j.Stage)
	}

	out := j
	out.Stage = StageSuccess
	out.Status = "Complete"
	out.Result = script
	out.UpdatedAt = time.Now().UTC()
	return out, nil
}

// Fail returns a terminal FAILURE snapshot with a human-readable message.
// Any non-terminal job can fail.
func (j Job) Fail(message string) (Job, error) {
	if j.Terminal() {
		return j, fmt.Errorf("job %s is already terminal in stage %s", j.ID, j.Stage)
	}

	out := j
	out.Stage = StageFailure
	out.Status = message
	out.Error = message
	out.UpdatedAt = time.Now().UTC()
	return out, nil
}
