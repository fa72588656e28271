package tasks

import "time"

// State is the lifecycle state of a background job. Transitions are driven
// by the worker (and, for REVOKED, by administrative action); this package
// only records and reads them.
type State string

const (
	StatePending State = "PENDING"
	StateStarted State = "STARTED"
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
	StateRevoked State = "REVOKED"
)

// IsTerminal reports whether no further transitions can occur.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateRevoked
}

// Task kinds understood by the worker.
const (
	KindAnswerQuestion = "answer_question"
	KindUpdateKG       = "update_kg"
)

// Job represents one unit of background work. The first element of Args is
// always the question hash; that is the correlation key tying a job back to
// its question.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Args       []string  `json:"args"`
	QuestionID string    `json:"question_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	State      State     `json:"state"`
	Stage      string    `json:"stage,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuestionHash returns the correlation key, or "" when the job carries no
// arguments and cannot be correlated.
func (j *Job) QuestionHash() string {
	if len(j.Args) == 0 {
		return ""
	}
	return j.Args[0]
}
