// Package evidence implements Byzantine fault detection and evidence management.
//
// The evidence pool collects, validates, and retains proofs of Byzantine
// behavior by validators for future block inclusion. The only kind of
// evidence the core state machine itself produces is consensus.Misbehavior
// (spec.md's typed equivocation record): two conflicting votes by the same
// signer at the same (height, round, kind), surfaced as a
// RecordEquivocation action the instant consensus.Step's Tally rejects the
// second one.
//
// # Core Interface
//
// Pool manages the evidence lifecycle:
//
//	type Pool struct { ... }
//	func NewPool(config Config) *Pool
//	func (p *Pool) AddEvidence(ev consensus.Misbehavior) error
//	func (p *Pool) CheckVote(vote consensus.Vote) (consensus.Misbehavior, bool)
//	func (p *Pool) PendingEvidence(maxBytes int64) []consensus.Misbehavior
//	func (p *Pool) MarkCommitted(evidence []consensus.Misbehavior)
//
// # Evidence Validation
//
// VerifyMisbehavior checks the internal consistency of a reported
// Misbehavior before it is trusted:
//
//	1. Both votes are at the same height/round
//	2. Both votes are the same kind (prevote or precommit)
//	3. Both votes are from the same signer
//	4. The votes are for different blocks (genuinely conflicting)
//
// Signature verification is left to the privval/ caller, which holds keys
// (spec §1 delegates signature checking to an external collaborator).
//
// # Evidence Lifecycle
//
//	1. Detect: Node observes conflicting votes from same validator
//	2. Create: Construct a consensus.Misbehavior with both votes
//	3. Validate: Check evidence rules (VerifyMisbehavior; signatures are checked by the caller)
//	4. Broadcast: Gossip evidence to all peers
//	5. Commit: Include in block for on-chain punishment
//	6. Punish: Application layer slashes validator stake
//
// # Byzantine Behavior
//
// Double-signing is the most common Byzantine fault:
//	- Validator prevotes for two different blocks at same height/round
//	- Validator precommits for two different blocks at same height/round
//	- Could be malicious attack or key compromise
//
// Evidence proves the fault cryptographically and enables slashing.
//
// # Expiration
//
// Evidence has a limited validity window measured in heights
// (Config.MaxAgeHeights, 100,000 by default). Older evidence is rejected by
// AddEvidence and pruned from the pending list by Update. Config.MaxAge is
// not consulted.
// This prevents long-range attacks and limits state growth.
//
// # Punishment
//
// The consensus layer detects and reports evidence, but punishment is
// application-specific. Typical penalties:
//	- Slash validator stake (e.g., 5% penalty)
//	- Remove validator from active set ("jailing")
//	- Blacklist validator from rejoining
//
// # Thread Safety
//
// The Pool implementation uses internal locking for concurrent access.
// Multiple goroutines can safely add and query evidence.
//
// # Usage Example
//
//	// Create evidence pool
//	pool := evidence.NewPool(evidence.DefaultConfig())
//
//	// Feed it the RecordEquivocation actions a consensus.Step call emits
//	for _, action := range actions {
//	    if re, ok := action.(consensus.RecordEquivocation); ok {
//	        _ = pool.AddEvidence(re.Evidence)
//	    }
//	}
//
//	// Get pending evidence for the next block proposal
//	pending := pool.PendingEvidence(0)
//
//	// Mark evidence as committed after block finalization
//	pool.MarkCommitted(pending)
package evidence
