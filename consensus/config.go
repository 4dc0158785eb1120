package consensus

// TimeoutConfig parameterizes the three per-round timers. Each is computed
// as T(r) = Base + r*Delta, per spec §4.3. Unlike the teacher's
// TimeoutTicker, this type never starts a real timer — it only computes
// the DurationMillis the core reports in a StartTimer action; the wall
// clock itself is an external collaborator (spec §1).
type TimeoutConfig struct {
	ProposeBase    int64
	ProposeDelta   int64
	PrevoteBase    int64
	PrevoteDelta   int64
	PrecommitBase  int64
	PrecommitDelta int64
}

// DefaultTimeoutConfig returns nominal Vetomint timeouts: large (hours),
// configurable, and not required for safety — only for liveness under
// adversarial conditions where the 5/6 early-termination path doesn't
// fire. Values are illustrative; production deployments override them via
// ConsensusParams.
func DefaultTimeoutConfig() TimeoutConfig {
	const hour = int64(3600_000)
	return TimeoutConfig{
		ProposeBase:    hour,
		ProposeDelta:   hour / 2,
		PrevoteBase:    hour / 4,
		PrevoteDelta:   hour / 8,
		PrecommitBase:  hour / 4,
		PrecommitDelta: hour / 8,
	}
}

func (c TimeoutConfig) duration(kind TimeoutKind, r Round) int64 {
	switch kind {
	case TimeoutPropose:
		return c.ProposeBase + int64(r)*c.ProposeDelta
	case TimeoutPrevote:
		return c.PrevoteBase + int64(r)*c.PrevoteDelta
	case TimeoutPrecommit:
		return c.PrecommitBase + int64(r)*c.PrecommitDelta
	default:
		return c.ProposeBase
	}
}

// ConsensusParams bundles the caller-supplied knobs a height is constructed
// with: the per-round timeout schedule and the stable-leader schedule
// itself, grounded in original_source/vetomint/src/lib.rs's
// ConsensusParams (timeout_ms, repeat_round_for_first_leader), generalized
// from a single repeated leader to an arbitrary schedule slice per spec
// §4.1.
type ConsensusParams struct {
	Timeouts TimeoutConfig
	Schedule []ValidatorID
}
