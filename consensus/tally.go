package consensus

import "sort"

// AddOutcome reports what happened when a vote was added to a Tally.
type AddOutcome uint8

const (
	// Accepted means the vote was new and counted.
	Accepted AddOutcome = iota
	// Duplicate means the signer already voted identically; no-op.
	Duplicate
	// Equivocation means the signer already voted for a different block;
	// the first observation stands, this one is dropped from the tally,
	// and the caller should emit a RecordEquivocation action.
	Equivocation
	// UnknownSigner means the signer carries no voting power in this
	// ledger; the vote is dropped.
	UnknownSigner
)

type blockTotal struct {
	block  BlockID
	weight Power
}

// Tally is a per-(height, round, kind) vote accumulator: the Vote Tally
// component. It deduplicates by signer, sums weight per candidate block,
// and answers the threshold predicates the Round State Machine drives off
// of. Grounded in the teacher's engine.VoteSet, stripped of its RWMutex
// (the core runs single-threaded) and its signature/timestamp checks
// (verification is an external collaborator per spec §1).
type Tally struct {
	ledger    *Ledger
	bySigner  map[ValidatorID]Vote
	byBlock   map[BlockID]*blockTotal
	sum       Power
	nonNilSum Power
}

// NewTally creates an empty Tally over ledger's voting power.
func NewTally(ledger *Ledger) *Tally {
	return &Tally{
		ledger:   ledger,
		bySigner: make(map[ValidatorID]Vote),
		byBlock:  make(map[BlockID]*blockTotal),
	}
}

// Add records vote, returning the outcome. On Equivocation, existing
// returns the previously recorded vote from the same signer so the caller
// can build a Misbehavior value from the pair.
func (t *Tally) Add(vote Vote) (outcome AddOutcome, existing Vote) {
	weight, ok := t.ledger.Power(vote.Signer)
	if !ok {
		return UnknownSigner, Vote{}
	}

	if prior, seen := t.bySigner[vote.Signer]; seen {
		if prior.Block == vote.Block {
			return Duplicate, Vote{}
		}
		return Equivocation, prior
	}

	t.bySigner[vote.Signer] = vote
	t.sum += weight
	if !IsNilBlock(vote.Block) {
		t.nonNilSum += weight
	}

	bt, ok := t.byBlock[vote.Block]
	if !ok {
		bt = &blockTotal{block: vote.Block}
		t.byBlock[vote.Block] = bt
	}
	bt.weight += weight

	return Accepted, Vote{}
}

// Votes returns every recorded vote, sorted by signer for deterministic
// iteration (used to build finalization proofs and WAL snapshots).
func (t *Tally) Votes() []Vote {
	votes := make([]Vote, 0, len(t.bySigner))
	for _, v := range t.bySigner {
		votes = append(votes, v)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].Signer.Less(votes[j].Signer) })
	return votes
}

// VotesFor returns the recorded votes for block, sorted by signer. Used to
// build a Decide action's finalization proof.
func (t *Tally) VotesFor(block BlockID) []Vote {
	var out []Vote
	for _, v := range t.bySigner {
		if v.Block == block {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signer.Less(out[j].Signer) })
	return out
}

// SumAny returns the total voting power of every recorded vote, nil or not.
func (t *Tally) SumAny() Power { return t.sum }

// SumNonNil returns the total voting power of non-nil votes.
func (t *Tally) SumNonNil() Power { return t.nonNilSum }

// SumFor returns the total voting power recorded for block.
func (t *Tally) SumFor(block BlockID) Power {
	if bt, ok := t.byBlock[block]; ok {
		return bt.weight
	}
	return 0
}

// HasTwoThirdsFor reports whether block has strictly more than 2/3 of W.
func (t *Tally) HasTwoThirdsFor(block BlockID) bool {
	return t.SumFor(block) >= t.ledger.Thresholds().T23
}

// HasTwoThirdsNil reports whether the nil vote has strictly more than 2/3
// of W.
func (t *Tally) HasTwoThirdsNil() bool {
	return t.HasTwoThirdsFor(NilBlock)
}

// HasTwoThirdsAny reports whether total recorded weight (nil or not)
// exceeds 2/3 of W.
func (t *Tally) HasTwoThirdsAny() bool {
	return t.sum >= t.ledger.Thresholds().T23
}

// HasFiveSixthsAny reports whether total recorded weight exceeds 5/6 of W —
// the Vetomint-specific early-termination threshold.
func (t *Tally) HasFiveSixthsAny() bool {
	return t.sum >= t.ledger.Thresholds().T56
}

// BestCandidate returns the non-nil block with the greatest recorded
// weight, ties broken by lexicographically smallest block hash so replay
// is deterministic regardless of vote arrival order. Returns NilBlock, false
// if no non-nil votes were recorded.
func (t *Tally) BestCandidate() (BlockID, bool) {
	var best *blockTotal
	for block, bt := range t.byBlock {
		if IsNilBlock(block) {
			continue
		}
		if best == nil || bt.weight > best.weight ||
			(bt.weight == best.weight && bt.block.Less(best.block)) {
			best = bt
		}
	}
	if best == nil {
		return NilBlock, false
	}
	return best.block, true
}
