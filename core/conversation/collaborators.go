package conversation

// Question is one entry of a [QuestionBank].
type Question struct {
	ID       string
	Category string
	Prompt   string
}

// QuestionBank is the ordered list of questions asked, starting at step 1.
type QuestionBank interface {
	// Question returns the question for step, false once step is past the
	// last question.
	Question(step int) (Question, bool)
}

// Result is what a [Scorer] concludes from the collected replies.
type Result struct {
	Label     string
	Narrative string
}

type Scorer interface {
	Score(replies []string) Result
}

type ScorerFunc func(replies []string) Result

func (f ScorerFunc) Score(replies []string) Result { return f(replies) }
