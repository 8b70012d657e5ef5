package session

import "poemEval/domain"

// Status distinguishes the expected, success-shaped outcomes of the
// assignment flow from real failures.
type Status string

const (
	// StatusAssigned means an item was reserved and phase 1 is pending.
	StatusAssigned Status = "assigned"
	// StatusLimitReached means the user consumed their personal limit. Not
	// an error; IncreaseLimit may reopen the flow once.
	StatusLimitReached Status = "limit_reached"
	// StatusNoItems means every rotation is exhausted for this user.
	StatusNoItems Status = "no_items"
)

// PoemOption is one of the four displayed choices of the blind selection
// step. Long poems carry a short preview so the client can fold the rest.
type PoemOption struct {
	Letter         string `json:"letter"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Content        string `json:"content"`
	Preview        string `json:"preview"`
	HasMoreContent bool   `json:"has_more_content"`
}

// Assignment carries everything the client needs to run phase 1 for one
// reserved item.
type Assignment struct {
	ImagePath    string            `json:"image_path"`
	SourceType   domain.SourceType `json:"source_type"`
	Options      []PoemOption      `json:"options"`
	TargetLetter string            `json:"target_letter"`
}

type StartResult struct {
	Status      Status      `json:"status"`
	TouchStatus string      `json:"touch_status,omitempty"`
	Assignment  *Assignment `json:"assignment,omitempty"`
	Completed   int         `json:"completed"`
	Limit       int         `json:"limit"`
}

type RevealResult struct {
	Correct          bool                       `json:"correct"`
	TargetLetter     string                     `json:"target_letter"`
	Poem             domain.Poem                `json:"poem"`
	Questions        map[string]domain.Question `json:"questions"`
	Phase1ResponseMs int64                      `json:"phase1_response_ms"`
}

type SubmitResult struct {
	Status     Status      `json:"status"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Completed  int         `json:"completed"`
	Limit      int         `json:"limit"`
}

type IncreaseLimitResult struct {
	NewLimit   int         `json:"new_limit"`
	Status     Status      `json:"status"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Completed  int         `json:"completed"`
	Limit      int         `json:"limit"`
}
