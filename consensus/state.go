package consensus

// State is everything a height instance remembers between Step calls: the
// per-round records the Height Driver owns, the height-wide locked/valid
// values, and the decision once reached. A zero State is a valid input to
// Step as long as the first Event delivered to it is Start.
//
// Step mutates the State it is given in place rather than returning a new
// one; this is an
// implementation-level convenience (it avoids reallocating the round map on
// every call) and does not compromise the purity the spec requires: State
// carries no I/O handle, clock, or back-reference to a caller, and
// identical (State, Event) pairs always produce identical results — the
// replay invariant only requires that property, not persistent/immutable
// data structures.
type State struct {
	started bool

	Height Height
	Ledger *Ledger
	Config TimeoutConfig
	Local  *ValidatorID

	Round  Round
	Rounds map[Round]*RoundState

	LockedBlock BlockID
	HasLocked   bool
	LockedRound Round

	ValidBlock BlockID
	HasValid   bool
	ValidRound Round

	Decided       bool
	DecidedBlock  BlockID
	DecidingRound Round
}

// RoundState is the per-round record of spec §3: the accepted proposal (if
// any), the prevote/precommit tallies, the round's current Step, and which
// timers are currently live.
type RoundState struct {
	Round Round

	HasProposal bool
	Proposal    Proposal

	Prevotes   *Tally
	Precommits *Tally

	Step RoundStep

	// AwaitingCandidate is true between emitting RequestBlockCandidate and
	// receiving the matching LocalBlockReady — the
	// "waiting_for_proposal_creation" sub-state from original_source.
	AwaitingCandidate bool

	// Vetoed records an OperatorVeto delivered for this round; consumed by
	// the next prevote decision (forces a nil prevote regardless of the
	// proposal's content).
	Vetoed bool

	startedTimers map[TimeoutKind]bool
}

func newRoundState(r Round, ledger *Ledger) *RoundState {
	return &RoundState{
		Round:         r,
		Prevotes:      NewTally(ledger),
		Precommits:    NewTally(ledger),
		Step:          StepAwaitProposal,
		startedTimers: make(map[TimeoutKind]bool),
	}
}

func (s *State) roundState(r Round) *RoundState {
	rs, ok := s.Rounds[r]
	if !ok {
		rs = newRoundState(r, s.Ledger)
		s.Rounds[r] = rs
	}
	return rs
}

// timeoutKinds fixes the iteration order used whenever the core must walk
// every timer kind (round-advance cancellation) so the resulting Action
// sequence is deterministic regardless of Go's map iteration order.
var timeoutKinds = [...]TimeoutKind{TimeoutPropose, TimeoutPrevote, TimeoutPrecommit}
