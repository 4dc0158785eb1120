package consensus

import "sort"

// Ledger is the immutable, per-height Voting-Power Ledger: a read-only
// mapping from validator identifier to positive voting power, the derived
// total, and the proposer-selection function for each round.
//
// A Ledger is built once at height construction and never mutated
// afterwards — membership changes (added/removed validators) always
// produce a new height, never an in-place edit of this one. This is the
// opposite of the teacher's types.ValidatorSet, which mutates
// ProposerPriority every round; Vetomint's stable-leader schedule is fixed
// for the whole height, so there is nothing left to rotate.
type Ledger struct {
	byID     map[ValidatorID]Power
	total    Power
	schedule []ValidatorID
	sorted   []ValidatorID // all validators, sorted by id, for round-robin wrap
}

// Validator pairs an identifier with its voting power, used only to build a
// Ledger.
type Validator struct {
	ID    ValidatorID
	Power Power
}

// NewLedger builds a Ledger from the enrolled validators and the
// stable-leader schedule. schedule is an ordered sequence of validator
// identifiers (possibly with repetition, e.g. [A,A,A,B,B,C,D]) mapping
// round index to proposer by direct indexing; rounds beyond the schedule
// wrap by deterministic round-robin over all validators ordered by
// identifier, continuing from where the schedule's last entry would have
// left off (see Proposer).
func NewLedger(validators []Validator, schedule []ValidatorID) (*Ledger, error) {
	if len(validators) == 0 {
		return nil, ErrNoValidators
	}
	if len(schedule) == 0 {
		return nil, ErrEmptySchedule
	}

	byID := make(map[ValidatorID]Power, len(validators))
	var total Power
	sorted := make([]ValidatorID, 0, len(validators))
	for _, v := range validators {
		if v.Power <= 0 {
			return nil, ErrNonPositivePower
		}
		if _, exists := byID[v.ID]; exists {
			return nil, ErrDuplicateValidator
		}
		byID[v.ID] = v.Power
		total += v.Power
		sorted = append(sorted, v.ID)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	for _, id := range schedule {
		if _, ok := byID[id]; !ok {
			return nil, ErrUnknownScheduled
		}
	}

	sched := make([]ValidatorID, len(schedule))
	copy(sched, schedule)

	return &Ledger{
		byID:     byID,
		total:    total,
		schedule: sched,
		sorted:   sorted,
	}, nil
}

// Power returns the voting power of id, and whether id is enrolled.
func (l *Ledger) Power(id ValidatorID) (Power, bool) {
	w, ok := l.byID[id]
	return w, ok
}

// Total returns W, the sum of all enrolled voting power.
func (l *Ledger) Total() Power {
	return l.total
}

// Size returns the number of enrolled validators.
func (l *Ledger) Size() int {
	return len(l.byID)
}

// Thresholds reports the four threshold weights derived from Total(): T23
// (strict majority over 2/3), T56 (strict majority over 5/6), F16 and F13
// (byzantine tolerance bounds for early termination and safety,
// respectively).
type Thresholds struct {
	T23 Power
	T56 Power
	F16 Power
	F13 Power
}

// Thresholds computes T_23, T_56, f16, f13 from the ledger's total voting
// power, per spec §3.
func (l *Ledger) Thresholds() Thresholds {
	w := int64(l.total)
	return Thresholds{
		T23: Power(2*w/3 + 1),
		T56: Power(5*w/6 + 1),
		F16: Power(w / 6),
		F13: Power(w / 3),
	}
}

// Proposer returns the validator designated to propose in round r. Rounds
// within the explicit schedule are served by direct index; rounds beyond it
// wrap via deterministic round-robin over all validators ordered by
// identifier, offset so that the wrap continues cleanly after the
// schedule's explicit entries (mirroring the original decide_proposer: the
// schedule's length stands in for the "repeat the first leader" count).
//
// Proposer is total: every round index, however large, resolves to some
// enrolled validator.
func (l *Ledger) Proposer(r Round) ValidatorID {
	n := int64(len(l.schedule))
	ri := int64(r)
	if ri < n {
		return l.schedule[ri]
	}
	wrapSize := int64(len(l.sorted))
	idx := (ri - n) % wrapSize
	return l.sorted[idx]
}
