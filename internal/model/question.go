package model

// QuestionCount is the fixed number of questions in a practice exam run.
const QuestionCount = 10

// Question represents a single multiple-choice question. Read-only reference
// data; CorrectAnswer is an index into Options.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Attachment    *string  `json:"attachment,omitempty"`
}

// PaperQuestion is a question as exposed to the participant, with the
// correct answer stripped.
type PaperQuestion struct {
	ID         int      `json:"id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Attachment *string  `json:"attachment,omitempty"`
}

// Paper converts a question to its participant-facing form.
func (q *Question) Paper() PaperQuestion {
	return PaperQuestion{
		ID:         q.ID,
		Question:   q.Question,
		Options:    q.Options,
		Attachment: q.Attachment,
	}
}

// SwitchQuestionRequest is the payload for navigating to another question.
type SwitchQuestionRequest struct {
	QuestionID int `json:"question_id" binding:"required,min=1,max=10"`
}

// SubmitAnswerRequest is the payload for answering the current question.
// OptionIndex is a pointer so index 0 still passes required validation.
type SubmitAnswerRequest struct {
	OptionIndex *int `json:"option_index" binding:"min=0,max=9"`
}
