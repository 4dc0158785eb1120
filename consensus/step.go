package consensus

// Step is the Height Driver's single entry point (spec §5): it consumes
// exactly one Event and returns the ordered Actions the caller must carry
// out. It is a pure function of (State, Event) — no I/O, no clock access
// beyond what a TimerFired event itself carries, no blocking. Replaying the
// same Event sequence through Step on a fresh zero State always reproduces
// identical State and identical Action sequences (spec §8, property 5).
//
// Once a height has Decided, Step drops every event except the implicit
// no-op: the caller is expected to destroy this State and construct the
// next height's once it observes the terminal Decide action.
func Step(s *State, event Event) []Action {
	if s.Decided {
		return nil
	}

	if _, ok := event.(Start); !ok && !s.started {
		return nil
	}

	var actions []Action
	switch e := event.(type) {
	case Start:
		actions = onStart(s, e)
	case ProposalReceived:
		actions = onProposalReceived(s, e)
	case PrevoteReceived:
		actions = onPrevoteReceived(s, e)
	case PrecommitReceived:
		actions = onPrecommitReceived(s, e)
	case LocalBlockReady:
		actions = onLocalBlockReady(s, e)
	case TimerFired:
		actions = onTimerFired(s, e)
	case OperatorVeto:
		actions = onOperatorVeto(s, e)
	default:
		return nil
	}

	checkInvariants(s)
	return actions
}
