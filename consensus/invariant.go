package consensus

import "fmt"

// checkInvariants re-asserts the handful of properties spec §7 calls
// "internal invariant violation: must never occur" — bugs in the state
// machine itself, never triggerable by adversarial input, so the response
// is to abort rather than to absorb the error the way malformed input or
// equivocation are absorbed. Every one of these is checked after every Step
// call at negligible cost (proportional to the number of live rounds).
func checkInvariants(s *State) {
	for _, rs := range s.Rounds {
		if rs.Prevotes.SumAny() > s.Ledger.Total() {
			panic(fmt.Sprintf("consensus: invariant violated: round %d prevote weight %d exceeds W=%d",
				rs.Round, rs.Prevotes.SumAny(), s.Ledger.Total()))
		}
		if rs.Precommits.SumAny() > s.Ledger.Total() {
			panic(fmt.Sprintf("consensus: invariant violated: round %d precommit weight %d exceeds W=%d",
				rs.Round, rs.Precommits.SumAny(), s.Ledger.Total()))
		}
	}

	if s.Decided {
		rs, ok := s.Rounds[s.DecidingRound]
		if !ok {
			panic("consensus: invariant violated: decided round has no RoundState")
		}
		if !rs.Precommits.HasTwoThirdsFor(s.DecidedBlock) {
			panic(fmt.Sprintf("consensus: invariant violated: Decide(%q) at round %d without >2/3 precommit weight",
				s.DecidedBlock, s.DecidingRound))
		}
	}

	if s.HasLocked && s.LockedRound > s.Round {
		panic(fmt.Sprintf("consensus: invariant violated: lockedRound %d exceeds current round %d", s.LockedRound, s.Round))
	}
	if s.HasValid && s.ValidRound > s.Round {
		panic(fmt.Sprintf("consensus: invariant violated: validRound %d exceeds current round %d", s.ValidRound, s.Round))
	}
}
