package models

// Identity describes the authenticated caller, as established by the auth
// middleware.
type Identity struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (i Identity) IsAdmin() bool {
	for _, r := range i.Roles {
		if r == "admin" {
			return true
		}
	}
	return false
}

type EditQuestionRequest struct {
	Name            string `json:"name" binding:"required"`
	Notes           string `json:"notes"`
	NaturalQuestion string `json:"natural_question"`
}

type FeedbackRequest struct {
	Notes string `json:"notes" binding:"required"`
}

type QuickRequest struct {
	MachineQuestion MachineQuestion `json:"machine_question" binding:"required"`
	Rebuild         bool            `json:"rebuild"`
}

type EnrichedRequest struct {
	Identifiers        []string `json:"identifiers" binding:"required"`
	Threshhold         *float64 `json:"threshhold"`
	MaxResults         *int     `json:"maxresults"`
	IncludeDescendants bool     `json:"include_descendants"`
	NumType1           *int     `json:"numtype1"`
	Rebuild            bool     `json:"rebuild"`
}

type QuestionResponse struct {
	User          interface{}     `json:"user"`
	Question      *Question       `json:"question"`
	Owner         string          `json:"owner"`
	AnswerSetList []AnswerSetMeta `json:"answerset_list"`
}

type TaskDispatchResponse struct {
	TaskID string `json:"task_id"`
}
