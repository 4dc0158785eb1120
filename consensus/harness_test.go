package consensus

import "testing"

// harness_test.go provides a small multi-node simulation used by the
// scenario tests in step_test.go: one *State per simulated validator, with
// BroadcastProposal/BroadcastVote actions fanned out as events to every
// other node, mirroring how the external gossip collaborator (out of scope
// per spec §1) would actually deliver them. RequestBlockCandidate is
// answered immediately with a deterministic candidate block so proposer
// flows complete without a real block-source collaborator.

type pending struct {
	from   ValidatorID
	action Action
}

// network simulates a fixed validator set, each running its own Step loop.
type network struct {
	nodes   map[ValidatorID]*State
	queue   []pending
	decided map[ValidatorID]BlockID
	evid    map[ValidatorID][]Misbehavior
}

func newNetwork(t *testing.T, validators []Validator, schedule []ValidatorID, h Height, cfg TimeoutConfig) *network {
	t.Helper()
	ledger, err := NewLedger(validators, schedule)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	net := &network{
		nodes:   make(map[ValidatorID]*State),
		decided: make(map[ValidatorID]BlockID),
		evid:    make(map[ValidatorID][]Misbehavior),
	}
	for _, v := range validators {
		id := v.ID
		s := &State{}
		local := id
		actions := Step(s, Start{Height: h, Ledger: ledger, Timeouts: cfg, Local: &local})
		net.nodes[id] = s
		net.absorb(id, actions)
	}
	net.drain(t)
	return net
}

// absorb queues every action a node produced; drain then fans them out and
// applies their local effects, Decide and RequestBlockCandidate included.
func (n *network) absorb(from ValidatorID, actions []Action) {
	for _, a := range actions {
		n.queue = append(n.queue, pending{from: from, action: a})
	}
}

// drain processes the action queue to quiescence: every BroadcastProposal
// and BroadcastVote is delivered to every node other than its author, every
// RequestBlockCandidate is answered inline, and every resulting action is
// queued again until nothing is left to deliver.
func (n *network) drain(t *testing.T) {
	t.Helper()
	for len(n.queue) > 0 {
		p := n.queue[0]
		n.queue = n.queue[1:]

		switch act := p.action.(type) {
		case BroadcastProposal:
			for id, s := range n.nodes {
				if id == p.from {
					continue
				}
				out := Step(s, ProposalReceived{Proposal: act.Proposal, SignatureOK: true, BodyValid: true})
				n.absorb(id, out)
			}
		case BroadcastVote:
			for id, s := range n.nodes {
				if id == p.from {
					continue
				}
				var out []Action
				switch act.Vote.Kind {
				case VotePrevote:
					out = Step(s, PrevoteReceived{Vote: act.Vote, SignatureOK: true})
				case VotePrecommit:
					out = Step(s, PrecommitReceived{Vote: act.Vote, SignatureOK: true})
				}
				n.absorb(id, out)
			}
		case RequestBlockCandidate:
			block := candidateFor(p.from, act.Round)
			out := Step(n.nodes[p.from], LocalBlockReady{Round: act.Round, Block: block})
			n.absorb(p.from, out)
		case Decide:
			n.decided[p.from] = act.Block
		case RecordEquivocation:
			n.evid[p.from] = append(n.evid[p.from], act.Evidence)
		case StartTimer, CancelTimer, AdvanceRound:
			// tests fire timers explicitly; informational actions need no
			// further propagation.
		}
	}
}

// candidateFor deterministically derives a "fresh" block for a proposer's
// round, standing in for the external block-source collaborator.
func candidateFor(proposer ValidatorID, r Round) BlockID {
	return BlockID(string(proposer) + "#" + string(rune('0'+r)))
}

// fireTimer delivers a TimerFired event to one node and drains the result.
func (n *network) fireTimer(t *testing.T, id ValidatorID, round Round, kind TimeoutKind) {
	t.Helper()
	out := Step(n.nodes[id], TimerFired{Round: round, Kind: kind})
	n.absorb(id, out)
	n.drain(t)
}

// veto delivers an OperatorVeto to one node.
func (n *network) veto(t *testing.T, id ValidatorID, round Round) {
	t.Helper()
	out := Step(n.nodes[id], OperatorVeto{Round: round})
	n.absorb(id, out)
	n.drain(t)
}
