package engine

// Outcome describes how a turn ended.
type Outcome string

const (
	OutcomeAnswered            Outcome = "answered"
	OutcomeGenerationFailed    Outcome = "generation_failed"
	OutcomeIterationsExhausted Outcome = "iterations_exhausted"
)

// TurnState is the per-Chat state handed to hooks.
type TurnState struct {
	Turn      int           // 1-based count of Chat calls on this engine
	Iteration int           // current generate call within the turn, 1-based
	Input     string        // user input for this turn
	Messages  []ChatMessage // in-flight messages sent to the model
	Action    *Action       // last parsed action, if any
	Reply     string        // final reply, set when the turn ends
	Outcome   Outcome
	Err       error // generation error for OutcomeGenerationFailed
}

func (s *TurnState) Append(msg ChatMessage) { s.Messages = append(s.Messages, msg) }
