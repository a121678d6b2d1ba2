package coverletters

import "testing"

func TestCanTransition(t *testing.T) {
	path := []State{StateIdle, StateResolvingInput, StateExtractingMetadata, StateBuildingFinalPrompt, StateGeneratingLetter, StatePersisting, StateDone}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
		if !CanTransition(path[i], StateFailed) {
			t.Fatalf("expected %s -> failed to be legal", path[i])
		}
	}

	illegal := [][2]State{
		{StateIdle, StateGeneratingLetter},
		{StateResolvingInput, StatePersisting},
		{StateDone, StateFailed},
		{StateFailed, StateIdle},
		{StatePersisting, StateResolvingInput},
	}
	for _, tr := range illegal {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be illegal", tr[0], tr[1])
		}
	}
}
