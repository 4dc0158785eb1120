package consensus

// Event is an inbound message to Step. It is the only way the outside world
// feeds the core; there is no other entry point. Grounded in spec §6 and
// engine.Engine's HandleConsensusMessage dispatch, but recast as data
// (values consumed by a pure function) rather than bytes dispatched to
// mutating handler methods.
type Event interface {
	isEvent()
}

// Start begins a new height. It must be the first event delivered to a
// fresh State. ledger is the height's immutable Voting-Power Ledger;
// local, if present, is this process's own validator identifier (nil for a
// pure observer that never proposes or votes).
type Start struct {
	Height   Height
	Ledger   *Ledger
	Timeouts TimeoutConfig
	Local    *ValidatorID
}

// ProposalReceived delivers a proposal the caller has already checked for
// signature validity; bodyValid reports the external block-body
// validator's verdict (delegated per spec §1 Non-goals).
type ProposalReceived struct {
	Proposal    Proposal
	SignatureOK bool
	BodyValid   bool
}

// PrevoteReceived delivers a prevote the caller has already checked for
// signature validity.
type PrevoteReceived struct {
	Vote        Vote
	SignatureOK bool
}

// PrecommitReceived delivers a precommit the caller has already checked for
// signature validity.
type PrecommitReceived struct {
	Vote        Vote
	SignatureOK bool
}

// LocalBlockReady answers a prior RequestBlockCandidate action: the local
// proposer's freshly assembled block body is ready to be proposed.
type LocalBlockReady struct {
	Round Round
	Block BlockID
}

// TimerFired reports that a previously started timer has elapsed. A
// TimerFired whose (Round, Kind) does not match a currently live timer
// (because it was cancelled, or belongs to a stale round) is ignored.
type TimerFired struct {
	Round Round
	Kind  TimeoutKind
}

// OperatorVeto is a local operator signal: displace the proposer of Round
// by making this validator's own next prevote in that round nil, if it
// hasn't already voted.
type OperatorVeto struct {
	Round Round
}

func (Start) isEvent()             {}
func (ProposalReceived) isEvent()  {}
func (PrevoteReceived) isEvent()   {}
func (PrecommitReceived) isEvent() {}
func (LocalBlockReady) isEvent()   {}
func (TimerFired) isEvent()        {}
func (OperatorVeto) isEvent()      {}
