package coverletters

import "time"

// State is a step of the generation state machine.
type State string

const (
	StateIdle                State = "idle"
	StateResolvingInput      State = "resolving_input"
	StateExtractingMetadata  State = "extracting_metadata"
	StateBuildingFinalPrompt State = "building_final_prompt"
	StateGeneratingLetter    State = "generating_letter"
	StatePersisting          State = "persisting"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// Terminal reports whether no transition can leave s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

var nextState = map[State]State{
	StateIdle:                StateResolvingInput,
	StateResolvingInput:      StateExtractingMetadata,
	StateExtractingMetadata:  StateBuildingFinalPrompt,
	StateBuildingFinalPrompt: StateGeneratingLetter,
	StateGeneratingLetter:    StatePersisting,
	StatePersisting:          StateDone,
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return nextState[from] == to
}

// Transition is reported to Service.OnTransition for every state change.
type Transition struct {
	UserID string
	From   State
	To     State
	At     time.Time
	Err    error
}
