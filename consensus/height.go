package consensus

// onStart initializes s for a new height and enters round 0. It is the
// Height Driver's construction step (spec §3 "Lifecycle"): the ledger, the
// per-round timeout schedule, and this process's own validator identifier
// (nil for a pure observer) are fixed for the life of the height.
func onStart(s *State, e Start) []Action {
	if s.started {
		return nil
	}

	*s = State{
		started:     true,
		Height:      e.Height,
		Ledger:      e.Ledger,
		Config:      e.Timeouts,
		Local:       e.Local,
		Round:       0,
		Rounds:      make(map[Round]*RoundState),
		LockedRound: NoRound,
		ValidRound:  NoRound,
	}

	return enterRound(s, 0)
}
