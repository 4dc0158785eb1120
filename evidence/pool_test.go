package evidence

import (
	"testing"
	"time"

	"github.com/simperby-go/vetomint/consensus"
)

func prevote(signer consensus.ValidatorID, h consensus.Height, r consensus.Round, block consensus.BlockID) consensus.Vote {
	return consensus.Vote{Kind: consensus.VotePrevote, Height: h, Round: r, Block: block, Signer: signer}
}

func TestPoolNew(t *testing.T) {
	pool := NewPool(DefaultConfig())
	if pool == nil {
		t.Fatal("NewPool should not return nil")
	}
	if pool.Size() != 0 {
		t.Errorf("new pool should have size 0, got %d", pool.Size())
	}
}

func TestPoolCheckVoteEquivocation(t *testing.T) {
	pool := NewPool(DefaultConfig())

	vote1 := prevote("alice", 1, 0, "0xAA")
	if _, found := pool.CheckVote(vote1); found {
		t.Error("first vote should not be equivocation")
	}

	// Same vote again — not equivocation.
	if _, found := pool.CheckVote(vote1); found {
		t.Error("same vote should not be equivocation")
	}

	// Different vote at same (signer, height, round, kind) — equivocation.
	vote2 := prevote("alice", 1, 0, "0xBB")
	ev, found := pool.CheckVote(vote2)
	if !found {
		t.Fatal("should detect equivocation")
	}
	if ev.Height != 1 || ev.Round != 0 || ev.Signer != "alice" {
		t.Errorf("unexpected evidence fields: %+v", ev)
	}
	if ev.Original.Block != "0xAA" || ev.Conflict.Block != "0xBB" {
		t.Errorf("unexpected evidence votes: %+v", ev)
	}
	if ev.Kind != consensus.DoublePrevote {
		t.Errorf("expected DoublePrevote, got %v", ev.Kind)
	}
}

func TestPoolCheckVoteSameBlock(t *testing.T) {
	pool := NewPool(DefaultConfig())

	vote1 := prevote("alice", 1, 0, "0xAA")
	pool.CheckVote(vote1)

	vote2 := prevote("alice", 1, 0, "0xAA")
	if _, found := pool.CheckVote(vote2); found {
		t.Error("votes for same block should not be equivocation")
	}
}

func TestPoolAddEvidence(t *testing.T) {
	pool := NewPool(DefaultConfig())
	pool.Update(1, time.Now())

	ev := consensus.Misbehavior{
		Kind:     consensus.DoublePrevote,
		Signer:   "alice",
		Height:   1,
		Round:    0,
		Original: prevote("alice", 1, 0, "0xAA"),
		Conflict: prevote("alice", 1, 0, "0xBB"),
	}

	if err := pool.AddEvidence(ev); err != nil {
		t.Fatalf("AddEvidence failed: %v", err)
	}
	if pool.Size() != 1 {
		t.Errorf("pool should have 1 evidence, got %d", pool.Size())
	}

	if err := pool.AddEvidence(ev); err != ErrDuplicateEvidence {
		t.Errorf("expected ErrDuplicateEvidence, got %v", err)
	}
}

func TestPoolPendingEvidence(t *testing.T) {
	pool := NewPool(DefaultConfig())
	pool.Update(1, time.Now())

	for i := 0; i < 5; i++ {
		ev := consensus.Misbehavior{
			Kind:     consensus.DoublePrevote,
			Signer:   consensus.ValidatorID(string(rune('a' + i))),
			Height:   consensus.Height(i + 1),
			Round:    0,
			Original: prevote(consensus.ValidatorID(string(rune('a'+i))), consensus.Height(i+1), 0, "0xAA"),
			Conflict: prevote(consensus.ValidatorID(string(rune('a'+i))), consensus.Height(i+1), 0, "0xBB"),
		}
		_ = pool.AddEvidence(ev)
	}

	if pool.Size() != 5 {
		t.Errorf("pool should have 5 evidence, got %d", pool.Size())
	}

	pending := pool.PendingEvidence(int64(evidenceOverhead*2 + 1))
	if len(pending) == 0 {
		t.Error("should return some pending evidence")
	}
	if len(pending) > 2 {
		t.Error("should respect byte limit")
	}

	pending = pool.PendingEvidence(0) // use default (1MB), far more than 5 items
	if len(pending) != 5 {
		t.Errorf("expected 5 pending, got %d", len(pending))
	}
}

func TestPoolMarkCommitted(t *testing.T) {
	pool := NewPool(DefaultConfig())
	pool.Update(1, time.Now())

	ev := consensus.Misbehavior{
		Kind:     consensus.DoublePrevote,
		Signer:   "alice",
		Height:   1,
		Round:    0,
		Original: prevote("alice", 1, 0, "0xAA"),
		Conflict: prevote("alice", 1, 0, "0xBB"),
	}
	_ = pool.AddEvidence(ev)

	if pool.Size() != 1 {
		t.Fatal("should have 1 pending")
	}

	pool.MarkCommitted([]consensus.Misbehavior{ev})

	if pool.Size() != 0 {
		t.Errorf("should have 0 pending after commit, got %d", pool.Size())
	}

	if err := pool.AddEvidence(ev); err != ErrDuplicateEvidence {
		t.Errorf("expected ErrDuplicateEvidence for committed evidence, got %v", err)
	}
}

func TestPoolExpiredEvidence(t *testing.T) {
	config := DefaultConfig()
	config.MaxAgeHeights = 10

	pool := NewPool(config)
	pool.Update(100, time.Now())

	ev := consensus.Misbehavior{
		Kind:     consensus.DoublePrevote,
		Signer:   "alice",
		Height:   50,
		Round:    0,
		Original: prevote("alice", 50, 0, "0xAA"),
		Conflict: prevote("alice", 50, 0, "0xBB"),
	}

	if err := pool.AddEvidence(ev); err != ErrEvidenceExpired {
		t.Errorf("expected ErrEvidenceExpired, got %v", err)
	}
}

func TestPoolUpdate(t *testing.T) {
	config := DefaultConfig()
	config.MaxAgeHeights = 5

	pool := NewPool(config)
	pool.Update(1, time.Now())

	ev := consensus.Misbehavior{
		Kind:     consensus.DoublePrevote,
		Signer:   "alice",
		Height:   1,
		Round:    0,
		Original: prevote("alice", 1, 0, "0xAA"),
		Conflict: prevote("alice", 1, 0, "0xBB"),
	}
	_ = pool.AddEvidence(ev)

	if pool.Size() != 1 {
		t.Error("should have 1 pending")
	}

	// Update to height 10 — evidence from height 1 should be pruned.
	pool.Update(10, time.Now())

	if pool.Size() != 0 {
		t.Errorf("evidence should be pruned, got %d", pool.Size())
	}
}

func TestVoteKey(t *testing.T) {
	vote := prevote("alice", 1, 0, "0xAA")
	key := voteKey(vote)
	expected := "alice/1/0/0" // signer/height/round/kind(prevote=0)
	if key != expected {
		t.Errorf("expected key %q, got %q", expected, key)
	}
}

func TestEvidenceKey(t *testing.T) {
	ev := consensus.Misbehavior{
		Kind:     consensus.DoublePrevote,
		Signer:   "alice",
		Height:   1,
		Round:    0,
		Original: prevote("alice", 1, 0, "0xAA"),
		Conflict: prevote("alice", 1, 0, "0xBB"),
	}

	key := evidenceKey(ev)
	if key != evidenceKey(ev) {
		t.Error("same evidence should produce same key")
	}

	ev2 := ev
	ev2.Conflict = prevote("alice", 1, 0, "0xCC")
	if evidenceKey(ev) == evidenceKey(ev2) {
		t.Error("different conflicting block should produce different keys")
	}
}

func TestVerifyMisbehavior(t *testing.T) {
	ev := consensus.Misbehavior{
		Kind:     consensus.DoublePrevote,
		Signer:   "alice",
		Height:   1,
		Round:    0,
		Original: prevote("alice", 1, 0, "0xAA"),
		Conflict: prevote("alice", 1, 0, "0xBB"),
	}
	if err := VerifyMisbehavior(ev); err != nil {
		t.Errorf("valid misbehavior should verify, got %v", err)
	}

	sameBlock := ev
	sameBlock.Conflict.Block = "0xAA"
	if err := VerifyMisbehavior(sameBlock); err != ErrSameBlock {
		t.Errorf("expected ErrSameBlock, got %v", err)
	}

	diffSigner := ev
	diffSigner.Conflict.Signer = "bob"
	if err := VerifyMisbehavior(diffSigner); err != ErrInvalidValidator {
		t.Errorf("expected ErrInvalidValidator, got %v", err)
	}
}
