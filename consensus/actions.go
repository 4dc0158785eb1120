package consensus

// Action is an outbound instruction from Step. The caller is obligated to
// carry out every action in the order returned. Grounded in spec §6 and in
// engine.Engine's broadcaster callbacks (BroadcastProposal/BroadcastVote),
// but returned as data instead of invoked directly — the core never calls
// out (§5).
type Action interface {
	isAction()
}

// BroadcastProposal asks the caller to gossip a proposal this validator
// just signed (conceptually; actual signing is an external collaborator —
// the core emits the unsigned content and the caller attaches a signature
// before sending).
type BroadcastProposal struct {
	Proposal Proposal
}

// BroadcastVote asks the caller to gossip a vote this validator just cast.
type BroadcastVote struct {
	Vote Vote
}

// StartTimer asks the caller to schedule a timer. durationMillis is
// computed from the height's TimeoutConfig and Round.
type StartTimer struct {
	Timer          TimerID
	DurationMillis int64
}

// CancelTimer asks the caller to cancel a previously started timer. The
// caller must honor cancellation before scheduling a new timer of the same
// kind in the same round; a late TimerFired for a cancelled timer is
// ignored by Step regardless.
type CancelTimer struct {
	Timer TimerID
}

// RequestBlockCandidate asks the external block-source collaborator to
// assemble a fresh block body for Round; the response arrives as a
// LocalBlockReady event.
type RequestBlockCandidate struct {
	Round Round
}

// RecordEquivocation reports typed misbehavior evidence for the caller's
// evidence pool to accumulate.
type RecordEquivocation struct {
	Evidence Misbehavior
}

// Decide is terminal for the height: B has been finalized at H, witnessed
// by FinalizationProof (the precommit set whose weight exceeds 2W/3 in
// DecidingRound).
type Decide struct {
	Height            Height
	Block             BlockID
	DecidingRound     Round
	FinalizationProof []Vote
}

// AdvanceRound is informational, emitted whenever the height moves from one
// round to the next, for loggers/metrics — it carries no instruction the
// caller must act on.
type AdvanceRound struct {
	Round Round
}

func (BroadcastProposal) isAction()     {}
func (BroadcastVote) isAction()         {}
func (StartTimer) isAction()            {}
func (CancelTimer) isAction()           {}
func (RequestBlockCandidate) isAction() {}
func (RecordEquivocation) isAction()    {}
func (Decide) isAction()                {}
func (AdvanceRound) isAction()          {}
