// Package wal implements a write-ahead log for consensus crash recovery.
//
// The write-ahead log (WAL) provides durability and crash recovery by persisting
// all consensus messages before they are processed. After a restart, the WAL is
// replayed to restore the consensus state to its last known position.
//
// # Core Interface
//
// WAL defines the interface for writing consensus messages and state changes:
//
//	type WAL interface {
//	    Write(msg *Message) error
//	    WriteSync(msg *Message) error
//	    FlushAndSync() error
//	    SearchForEndHeight(height int64) (Reader, bool, error)
//	    Start() error
//	    Stop() error
//	    Group() *Group
//	}
//
// # Implementation
//
// FileWAL: Disk-based WAL using length-prefixed messages with CRC32 checksums.
// Messages are buffered for performance and fsync'd on critical operations.
//
// # Message Types
//
// Each Message.Type names which consensus.Event its Data payload decodes
// to, via DecodeEvent:
//
//	- MsgTypeStart: begins a height (Validators/Schedule/Timeouts/Local)
//	- MsgTypeProposal: consensus.ProposalReceived
//	- MsgTypeVote: consensus.PrevoteReceived or consensus.PrecommitReceived
//	- MsgTypeBlockReady: consensus.LocalBlockReady
//	- MsgTypeTimeout: consensus.TimerFired
//	- MsgTypeVeto: consensus.OperatorVeto
//	- MsgTypeEndHeight: marks successful completion of a height, no payload
//
// # File Format
//
// Each entry is encoded as:
//
//	[4 bytes: length][N bytes: cbor-encoded message][4 bytes: CRC32]
//
// The length prefix enables fast seeking and validation.
// CRC32 detects corruption from incomplete writes or disk errors.
//
// # Rotation and Cleanup
//
// WAL segments are rotated by size: a write that finds the current segment
// at or above the maximum segment size (64MB by default) first opens the
// next one. Checkpoint deletes old segments whose records are all at or
// below a given height.
//
//	wal-00000
//	wal-00001
//
// # Recovery Process
//
// On startup:
//	1. Read all WAL files in order
//	2. Decode and validate each message
//	3. Replay messages through consensus.Step (see package replay)
//	4. Resume consensus from last recorded state
//
// # Thread Safety
//
// FileWAL uses internal locking to ensure thread-safe writes from multiple
// goroutines. However, only one WAL instance should write to a directory.
//
// # Performance Considerations
//
// Regular Write() calls are buffered for throughput.
// WriteSync() forces an fsync for critical safety (e.g., before signing votes).
// Balance durability vs performance based on your consistency requirements.
//
// # Usage Example
//
//	// Create a new file-based WAL
//	w, err := wal.NewFileWAL("./data/wal")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
//	// Write a proposal (buffered)
//	msg, err := wal.NewProposalMessage(event)
//	err = w.Write(msg)
//
//	// Write a critical vote (synced)
//	msg, err = wal.NewPrevoteMessage(event)
//	err = w.WriteSync(msg)
//
//	// Replay WAL after crash: see package replay for the full loop, which
//	// reads each Message, decodes it with DecodeEvent, and feeds the result
//	// to consensus.Step.
package wal
