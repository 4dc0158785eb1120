package evidence

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/simperby-go/vetomint/consensus"
)

// Errors
var (
	ErrDuplicateEvidence = errors.New("duplicate evidence")
	ErrEvidenceExpired   = errors.New("evidence expired")
	ErrInvalidVoteHeight = errors.New("votes have different heights")
	ErrInvalidVoteRound  = errors.New("votes have different rounds")
	ErrInvalidVoteKind   = errors.New("votes have different kinds")
	ErrInvalidValidator  = errors.New("votes from different validators")
	ErrSameBlock         = errors.New("votes for same block are not equivocation")
)

// MaxSeenVotes bounds the peer-reported-evidence cross-check cache. With
// hundreds of validators and a few rounds of retained history this is a
// generous ceiling; beyond it, the least-recently-used entries are evicted
// rather than grown without bound.
const MaxSeenVotes = 100000

// Config holds evidence pool configuration
type Config struct {
	// MaxAge is a wall-clock age limit. The pool does not consult it;
	// expiry is decided by MaxAgeHeights alone.
	MaxAge time.Duration
	// MaxAgeHeights is the maximum height age of evidence
	MaxAgeHeights int64
	// MaxBytes is the maximum size of evidence to include in a block
	MaxBytes int64
}

// DefaultConfig returns default evidence pool configuration
func DefaultConfig() Config {
	return Config{
		MaxAge:        48 * time.Hour,
		MaxAgeHeights: 100000,
		MaxBytes:      1048576, // 1MB
	}
}

// Pool manages typed Misbehavior evidence: the RecordEquivocation actions
// consensus.Step emits, reported for inclusion in future blocks (e.g. for
// slashing), aged out once stale, and deduplicated against what has already
// been committed. Detecting equivocation among votes this node has itself
// processed is consensus.Tally's job (it already rejects a signer's second,
// conflicting vote and the core emits RecordEquivocation on the spot) — Pool
// exists for the evidence that detection produces, plus independent
// cross-checking of evidence a peer reports about votes this node may not
// have tallied itself (CheckVote).
type Pool struct {
	mu     sync.RWMutex
	config Config

	// Pending evidence to include in blocks
	pending []consensus.Misbehavior

	// Committed evidence (already included in blocks), keyed by evidenceKey
	committed map[string]struct{}

	// seenVotes cross-checks peer-reported evidence: bounded LRU cache of
	// the first vote seen per (signer, height, round, kind).
	seenVotes *lru.Cache

	currentHeight consensus.Height
	currentTime   time.Time
}

// NewPool creates a new evidence pool
func NewPool(config Config) *Pool {
	cache, err := lru.New(MaxSeenVotes)
	if err != nil {
		// Only returns an error for a non-positive size, which MaxSeenVotes
		// never is.
		panic(fmt.Sprintf("evidence: building seenVotes cache: %v", err))
	}
	return &Pool{
		config:    config,
		committed: make(map[string]struct{}),
		seenVotes: cache,
	}
}

// Update updates the pool's knowledge of current height and time, and
// prunes evidence that has aged out.
func (p *Pool) Update(height consensus.Height, blockTime time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentHeight = height
	p.currentTime = blockTime
	p.pruneExpired()
}

// CheckVote cross-checks vote against the first vote seen (and still cached)
// from the same signer at the same (height, round, kind); a conflicting block hash
// is equivocation. This exists for votes arriving outside the live
// consensus.Step loop (e.g. a peer forwarding an older vote as part of an
// evidence report) — a vote this node's own Tally has already tallied
// never needs this, since RecordEquivocation already fired for it.
func (p *Pool) CheckVote(vote consensus.Vote) (consensus.Misbehavior, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := voteKey(vote)
	if cached, ok := p.seenVotes.Get(key); ok {
		existing := cached.(consensus.Vote)
		if existing.Block != vote.Block {
			return consensus.Misbehavior{
				Kind:     misbehaviorKind(vote.Kind),
				Signer:   vote.Signer,
				Height:   vote.Height,
				Round:    vote.Round,
				Original: existing,
				Conflict: vote,
			}, true
		}
		return consensus.Misbehavior{}, false
	}

	p.seenVotes.Add(key, vote)
	return consensus.Misbehavior{}, false
}

// AddEvidence adds verified evidence to the pool for future block
// inclusion. Rejects evidence already committed, already pending, or too
// old to ever be includable.
func (p *Pool) AddEvidence(ev consensus.Misbehavior) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := evidenceKey(ev)
	if _, ok := p.committed[key]; ok {
		return ErrDuplicateEvidence
	}
	for _, pending := range p.pending {
		if evidenceKey(pending) == key {
			return ErrDuplicateEvidence
		}
	}
	if p.isExpired(ev) {
		return ErrEvidenceExpired
	}

	p.pending = append(p.pending, ev)
	return nil
}

// evidenceOverhead is a conservative per-item size estimate (kind, signer,
// height, round, two votes) used to bound PendingEvidence's output without
// actually serializing every candidate.
const evidenceOverhead = 1 + 32 + 8 + 8 + 2*(1+8+8+32+32)

func evidenceSize(consensus.Misbehavior) int64 {
	return evidenceOverhead
}

// PendingEvidence returns evidence to include in a block, up to maxBytes
// (falling back to the pool's configured MaxBytes when maxBytes <= 0).
func (p *Pool) PendingEvidence(maxBytes int64) []consensus.Misbehavior {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if maxBytes <= 0 {
		maxBytes = p.config.MaxBytes
	}

	var result []consensus.Misbehavior
	var totalSize int64
	for _, ev := range p.pending {
		evSize := evidenceSize(ev)
		if totalSize+evSize > maxBytes {
			break
		}
		result = append(result, ev)
		totalSize += evSize
	}
	return result
}

// MarkCommitted marks evidence as committed (included in a block) and
// removes it from pending.
func (p *Pool) MarkCommitted(evidence []consensus.Misbehavior) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ev := range evidence {
		p.committed[evidenceKey(ev)] = struct{}{}
	}
	p.removePending(evidence)
}

// Size returns the number of pending evidence items.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pending)
}

// VerifyMisbehavior checks the internal consistency of a reported
// Misbehavior: same signer/height/round on both votes, matching vote kind,
// and genuinely conflicting (different) blocks. Signature verification
// against the reporting validator's public key is left to the privval/
// caller, which holds the keys (spec §1 delegates signature checking to an
// external collaborator).
func VerifyMisbehavior(ev consensus.Misbehavior) error {
	a, b := ev.Original, ev.Conflict
	if a.Height != b.Height {
		return ErrInvalidVoteHeight
	}
	if a.Round != b.Round {
		return ErrInvalidVoteRound
	}
	if a.Kind != b.Kind {
		return ErrInvalidVoteKind
	}
	if a.Signer != b.Signer {
		return ErrInvalidValidator
	}
	if a.Block == b.Block {
		return ErrSameBlock
	}
	return nil
}

// pruneExpired removes pending evidence that has aged out; the seenVotes
// cache is bounded by its LRU size and is not pruned here. Caller must hold
// p.mu.
func (p *Pool) pruneExpired() {
	var valid []consensus.Misbehavior
	for _, ev := range p.pending {
		if !p.isExpired(ev) {
			valid = append(valid, ev)
		}
	}
	p.pending = valid
}

// isExpired checks if evidence is too old to ever be included.
func (p *Pool) isExpired(ev consensus.Misbehavior) bool {
	if int64(p.currentHeight-ev.Height) > p.config.MaxAgeHeights {
		return true
	}
	return false
}

// removePending removes evidence from the pending list. Caller must hold p.mu.
func (p *Pool) removePending(toRemove []consensus.Misbehavior) {
	removeSet := make(map[string]struct{}, len(toRemove))
	for _, ev := range toRemove {
		removeSet[evidenceKey(ev)] = struct{}{}
	}

	var remaining []consensus.Misbehavior
	for _, ev := range p.pending {
		if _, ok := removeSet[evidenceKey(ev)]; !ok {
			remaining = append(remaining, ev)
		}
	}
	p.pending = remaining
}

// voteKey returns a unique key for a vote, for CheckVote's lookup.
func voteKey(vote consensus.Vote) string {
	return fmt.Sprintf("%s/%d/%d/%d", vote.Signer, vote.Height, vote.Round, vote.Kind)
}

// evidenceKey returns a unique key for evidence, including a hash of both
// votes' block IDs to avoid collisions between distinct equivocations at
// the same (signer, height, round).
func evidenceKey(ev consensus.Misbehavior) string {
	h := sha256.Sum256([]byte(string(ev.Original.Block) + "|" + string(ev.Conflict.Block)))
	return fmt.Sprintf("%d/%s/%d/%d/%x", ev.Kind, ev.Signer, ev.Height, ev.Round, h[:8])
}

// misbehaviorKind maps a vote kind to the matching equivocation kind.
func misbehaviorKind(k consensus.VoteKind) consensus.MisbehaviorKind {
	if k == consensus.VotePrecommit {
		return consensus.DoublePrecommit
	}
	return consensus.DoublePrevote
}
