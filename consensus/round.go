package consensus

// enterRound starts round r: AwaitProposal per spec §4.3. If the local
// validator is proposer(r), it proposes immediately (re-proposing
// ValidBlock if one is locked-valid, otherwise requesting a fresh
// candidate); otherwise it starts a propose timeout.
func enterRound(s *State, r Round) []Action {
	rs := s.roundState(r)
	proposer := s.Ledger.Proposer(r)

	if s.Local == nil || *s.Local != proposer {
		return startTimer(s, rs, TimeoutPropose)
	}

	if s.HasValid {
		proposal := Proposal{
			Height:     s.Height,
			Round:      r,
			Block:      s.ValidBlock,
			ValidRound: s.ValidRound,
			Proposer:   proposer,
		}
		return proposeAndPrevote(s, rs, proposal)
	}

	rs.AwaitingCandidate = true
	return []Action{RequestBlockCandidate{Round: r}}
}

// onLocalBlockReady answers a RequestBlockCandidate action: the local
// proposer's fresh block body is ready, so propose it now.
func onLocalBlockReady(s *State, e LocalBlockReady) []Action {
	rs, ok := s.Rounds[e.Round]
	if !ok || !rs.AwaitingCandidate {
		return nil
	}
	rs.AwaitingCandidate = false

	proposal := Proposal{
		Height:     s.Height,
		Round:      e.Round,
		Block:      e.Block,
		ValidRound: NoRound,
		Proposer:   s.Ledger.Proposer(e.Round),
	}
	return proposeAndPrevote(s, rs, proposal)
}

// proposeAndPrevote emits BroadcastProposal for a proposal this validator
// itself just authored, then immediately runs it through the same
// acceptance/prevote logic a remote proposal would get (spec's "On
// proposal received"), since the core never calls itself — the author of
// a proposal must process it exactly like any other recipient would.
func proposeAndPrevote(s *State, rs *RoundState, p Proposal) []Action {
	actions := []Action{BroadcastProposal{Proposal: p}}
	return append(actions, acceptProposal(s, rs, p, true, true)...)
}

// onProposalReceived handles spec's "On proposal received": pre-verified
// (signatureOk, bodyValid) proposals from the proposer(r) for the current
// (H, r).
func onProposalReceived(s *State, e ProposalReceived) []Action {
	p := e.Proposal
	if p.Height != s.Height {
		return nil
	}
	if !e.SignatureOK {
		return nil
	}
	if p.Proposer != s.Ledger.Proposer(p.Round) {
		return nil
	}

	rs := s.roundState(p.Round)
	if rs.HasProposal {
		return nil // duplicate proposal for this round, dropped
	}

	return acceptProposal(s, rs, p, true, e.BodyValid)
}

// acceptProposal records p in rs and decides this validator's prevote
// target per spec §4.3's ordered rule list, then emits it.
func acceptProposal(s *State, rs *RoundState, p Proposal, signatureOK, bodyValid bool) []Action {
	rs.HasProposal = true
	rs.Proposal = p

	// Veto and body-validity gate the decision unconditionally, before the
	// lock/POL rule is even consulted: this matches classical Tendermint,
	// where valid(v) is ANDed with the lock condition rather than checked
	// after it, and is required for spec §8's S2 (a veto must force a nil
	// prevote even at round 0, before any lock has ever been set — which
	// the lock condition alone would otherwise wave through).
	var target BlockID
	switch {
	case rs.Vetoed:
		target = NilBlock
	case !bodyValid:
		target = NilBlock
	case s.LockedRound == NoRound || (s.HasLocked && s.LockedBlock == p.Block):
		target = p.Block
	case p.ValidRound >= 0 && s.roundState(p.ValidRound).Prevotes.HasTwoThirdsFor(p.Block):
		target = p.Block
	default:
		target = NilBlock
	}

	return emitPrevote(s, rs, target)
}

// onOperatorVeto records a local displacement signal for round r, consumed
// by the next prevote decision in that round. Purely local: it never
// changes any other validator's behavior.
func onOperatorVeto(s *State, e OperatorVeto) []Action {
	rs := s.roundState(e.Round)
	if rs.Step == StepAwaitProposal {
		rs.Vetoed = true
	}
	return nil
}

// emitPrevote casts this validator's own prevote for block in rs: it is
// broadcast and, since nothing delivers it back to us, fed through the
// same tally-update path any received prevote takes.
func emitPrevote(s *State, rs *RoundState, block BlockID) []Action {
	if s.Local == nil {
		rs.Step = StepPrevoted
		return nil
	}
	vote := Vote{Kind: VotePrevote, Height: s.Height, Round: rs.Round, Block: block, Signer: *s.Local}
	rs.Step = StepPrevoted
	actions := []Action{BroadcastVote{Vote: vote}}
	return append(actions, addPrevote(s, rs, vote)...)
}

// onPrevoteReceived handles an externally-sourced prevote.
func onPrevoteReceived(s *State, e PrevoteReceived) []Action {
	v := e.Vote
	if v.Height != s.Height || v.Kind != VotePrevote || !e.SignatureOK {
		return nil
	}
	rs := s.roundState(v.Round)
	actions := addPrevote(s, rs, v)
	return append(actions, maybeAdvanceOnFutureRound(s, v.Round, rs.Prevotes)...)
}

// addPrevote adds vote to rs.Prevotes and runs spec's "On prevote received"
// consequences: POL update, prevote-timeout scheduling, the classical
// >2/3-non-nil path straight into a lock+precommit (spec §8's S3: this must
// fire before any timeout), and the Vetomint-specific 5/6 early-termination
// path for the remaining case where no single block clears 2/3.
func addPrevote(s *State, rs *RoundState, vote Vote) []Action {
	outcome, existing := rs.Prevotes.Add(vote)
	switch outcome {
	case Equivocation:
		return []Action{RecordEquivocation{Evidence: Misbehavior{
			Kind: DoublePrevote, Signer: vote.Signer, Height: vote.Height, Round: vote.Round,
			Original: existing, Conflict: vote,
		}}}
	case Duplicate, UnknownSigner:
		return nil
	}

	var actions []Action

	if rs.Step >= StepPrevoted && rs.HasProposal {
		if b, ok := rs.Prevotes.BestCandidate(); ok && rs.Prevotes.HasTwoThirdsFor(b) {
			s.HasValid = true
			s.ValidBlock = b
			s.ValidRound = rs.Round
		}
	}

	if rs.Step == StepPrevoted && rs.HasProposal {
		if b, ok := rs.Prevotes.BestCandidate(); ok && b == rs.Proposal.Block && rs.Prevotes.HasTwoThirdsFor(b) {
			actions = append(actions, cancelTimer(rs, TimeoutPrevote)...)
			s.LockedBlock, s.HasLocked, s.LockedRound = b, true, rs.Round
			s.ValidBlock, s.HasValid, s.ValidRound = b, true, rs.Round
			return append(actions, emitPrecommit(s, rs, b)...)
		}
	}

	if rs.Step == StepPrevoted && !rs.startedTimers[TimeoutPrevote] &&
		(rs.Prevotes.HasFiveSixthsAny() || rs.Prevotes.HasTwoThirdsAny()) {
		actions = append(actions, startTimer(s, rs, TimeoutPrevote)...)
	}

	if rs.Step == StepPrevoted && rs.Prevotes.HasFiveSixthsAny() {
		actions = append(actions, cancelTimer(rs, TimeoutPrevote)...)

		if b, ok := rs.Prevotes.BestCandidate(); ok && rs.Prevotes.HasTwoThirdsFor(b) {
			s.LockedBlock, s.HasLocked, s.LockedRound = b, true, rs.Round
			s.ValidBlock, s.HasValid, s.ValidRound = b, true, rs.Round
			actions = append(actions, emitPrecommit(s, rs, b)...)
		} else {
			actions = append(actions, emitPrecommit(s, rs, NilBlock)...)
		}
	}

	return actions
}

// onTimerFired dispatches a fired timer to whichever phase it belongs to,
// ignoring it if it doesn't match a currently live timer for the current
// phase of its round (already cancelled, or stale).
func onTimerFired(s *State, e TimerFired) []Action {
	rs, ok := s.Rounds[e.Round]
	if !ok || !rs.startedTimers[e.Kind] {
		return nil
	}

	switch e.Kind {
	case TimeoutPropose:
		if rs.Step != StepAwaitProposal {
			return nil
		}
		rs.startedTimers[TimeoutPropose] = false
		return emitPrevote(s, rs, NilBlock)

	case TimeoutPrevote:
		if rs.Step != StepPrevoted {
			return nil
		}
		rs.startedTimers[TimeoutPrevote] = false
		return emitPrecommit(s, rs, NilBlock)

	case TimeoutPrecommit:
		if rs.Step != StepPrecommitted {
			return nil
		}
		rs.startedTimers[TimeoutPrecommit] = false
		return advanceToRound(s, e.Round+1)

	default:
		return nil
	}
}

// emitPrecommit casts this validator's own precommit for block in rs.
func emitPrecommit(s *State, rs *RoundState, block BlockID) []Action {
	rs.Step = StepPrecommitted
	if s.Local == nil {
		return nil
	}
	vote := Vote{Kind: VotePrecommit, Height: s.Height, Round: rs.Round, Block: block, Signer: *s.Local}
	actions := []Action{BroadcastVote{Vote: vote}}
	return append(actions, addPrecommit(s, rs, vote)...)
}

// onPrecommitReceived handles an externally-sourced precommit.
func onPrecommitReceived(s *State, e PrecommitReceived) []Action {
	v := e.Vote
	if v.Height != s.Height || v.Kind != VotePrecommit || !e.SignatureOK {
		return nil
	}
	rs := s.roundState(v.Round)
	actions := addPrecommit(s, rs, v)
	if s.Decided {
		return actions
	}
	return append(actions, maybeAdvanceOnFutureRound(s, v.Round, rs.Precommits)...)
}

// addPrecommit adds vote to rs.Precommits and runs spec's "On precommit
// received" consequences: decide on >2/3 for the proposed block, schedule
// the precommit timeout on >2/3 any, and — mirroring the prevote phase's 5/6
// early termination, and grounded in original_source's own "on-5f-precommit"
// TODO, never finished there — advance immediately past >5/6 precommits
// without waiting for that timeout, since no additional vote can still
// change which (if any) block clears >2/3 here.
func addPrecommit(s *State, rs *RoundState, vote Vote) []Action {
	outcome, existing := rs.Precommits.Add(vote)
	switch outcome {
	case Equivocation:
		return []Action{RecordEquivocation{Evidence: Misbehavior{
			Kind: DoublePrecommit, Signer: vote.Signer, Height: vote.Height, Round: vote.Round,
			Original: existing, Conflict: vote,
		}}}
	case Duplicate, UnknownSigner:
		return nil
	}

	if b, ok := rs.Precommits.BestCandidate(); ok && rs.Precommits.HasTwoThirdsFor(b) &&
		rs.HasProposal && rs.Proposal.Block == b && !s.Decided {
		return decide(s, rs, b)
	}

	var actions []Action
	if rs.Precommits.HasTwoThirdsAny() && !rs.startedTimers[TimeoutPrecommit] {
		actions = append(actions, startTimer(s, rs, TimeoutPrecommit)...)
	}

	if rs.Round == s.Round && rs.Precommits.HasFiveSixthsAny() {
		actions = append(actions, cancelTimer(rs, TimeoutPrecommit)...)
		actions = append(actions, advanceToRound(s, rs.Round+1)...)
	}

	return actions
}

// decide finalizes block b in round rs.Round for the height. Terminal: no
// later Step call for this State will emit a different decision.
func decide(s *State, rs *RoundState, b BlockID) []Action {
	rs.Step = StepDecided
	s.Decided = true
	s.DecidedBlock = b
	s.DecidingRound = rs.Round
	return []Action{Decide{
		Height:            s.Height,
		Block:             b,
		DecidingRound:     rs.Round,
		FinalizationProof: rs.Precommits.VotesFor(b),
	}}
}

// maybeAdvanceOnFutureRound implements the Height Driver's fast-forward
// rule: observing >2/3 any-kind weight in a round strictly ahead of the
// current one advances the height to that round immediately, without
// waiting for the current round's timeout.
func maybeAdvanceOnFutureRound(s *State, r Round, t *Tally) []Action {
	if r <= s.Round || !t.HasTwoThirdsAny() {
		return nil
	}
	return advanceToRound(s, r)
}

// advanceToRound cancels any timers still live in the outgoing round,
// emits the informational AdvanceRound action, and enters newRound.
func advanceToRound(s *State, newRound Round) []Action {
	var actions []Action
	if old, ok := s.Rounds[s.Round]; ok {
		for _, kind := range timeoutKinds {
			actions = append(actions, cancelTimer(old, kind)...)
		}
	}
	s.Round = newRound
	actions = append(actions, AdvanceRound{Round: newRound})
	return append(actions, enterRound(s, newRound)...)
}

func startTimer(s *State, rs *RoundState, kind TimeoutKind) []Action {
	rs.startedTimers[kind] = true
	return []Action{StartTimer{
		Timer:          TimerID{Round: rs.Round, Kind: kind},
		DurationMillis: s.Config.duration(kind, rs.Round),
	}}
}

func cancelTimer(rs *RoundState, kind TimeoutKind) []Action {
	if !rs.startedTimers[kind] {
		return nil
	}
	rs.startedTimers[kind] = false
	return []Action{CancelTimer{Timer: TimerID{Round: rs.Round, Kind: kind}}}
}
