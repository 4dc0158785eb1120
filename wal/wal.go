package wal

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/simperby-go/vetomint/consensus"
)

// Errors
var (
	ErrWALClosed     = errors.New("WAL is closed")
	ErrWALCorrupted  = errors.New("WAL is corrupted")
	ErrWALNotFound   = errors.New("WAL file not found")
	ErrInvalidHeight = errors.New("invalid height in WAL")
)

// MessageType identifies which consensus.Event (or log-structural marker) a
// Message's Data payload decodes to.
type MessageType uint8

const (
	MsgTypeUnknown MessageType = iota
	MsgTypeStart                // consensus.Start (as a startRecord, see below)
	MsgTypeProposal             // consensus.ProposalReceived
	MsgTypeVote                 // consensus.PrevoteReceived or consensus.PrecommitReceived
	MsgTypeBlockReady           // consensus.LocalBlockReady
	MsgTypeTimeout              // consensus.TimerFired
	MsgTypeVeto                 // consensus.OperatorVeto
	MsgTypeEndHeight            // marks a height's WAL segment as closed
)

// Message is one length-prefixed, CRC32-framed record in a WAL segment.
// Data holds the cbor encoding of the event named by Type; FileWAL treats
// Data as an opaque blob and only MsgTypeEndHeight is structurally special
// (it carries no payload and marks a segment boundary, used by
// SearchForEndHeight).
type Message struct {
	Type   MessageType
	Height int64
	Round  int32
	Data   []byte
}

// MarshalCBOR serializes the message for on-disk storage. Replaces the
// teacher's MarshalCramberry, which depended on the unfetchable private
// `cramberry` codec module; cbor is this pack's closest real analog — a
// compact, deterministic binary codec, already pulled in for the same
// purpose elsewhere in this module.
type rawMessage Message

func (m *Message) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal((*rawMessage)(m))
}

// UnmarshalCBOR deserializes a message previously written by MarshalCBOR.
func (m *Message) UnmarshalCBOR(data []byte) error {
	return cbor.Unmarshal(data, (*rawMessage)(m))
}

// WAL interface for write-ahead logging
type WAL interface {
	// Write writes a message to the WAL
	Write(msg *Message) error

	// WriteSync writes a message and ensures it's synced to disk
	WriteSync(msg *Message) error

	// FlushAndSync flushes and syncs all pending writes
	FlushAndSync() error

	// SearchForEndHeight searches for the end of a height in the WAL
	// Returns a Reader positioned after the EndHeight message, or false if not found
	SearchForEndHeight(height int64) (Reader, bool, error)

	// Start starts the WAL
	Start() error

	// Stop stops the WAL
	Stop() error

	// Group returns the current WAL group (for rotation)
	Group() *Group
}

// Reader interface for reading from WAL
type Reader interface {
	// Read reads the next message from the WAL
	Read() (*Message, error)

	// Close closes the reader
	Close() error
}

// Group represents a group of WAL files (for rotation)
type Group struct {
	Dir      string
	Prefix   string
	MaxSize  int64
	MinIndex int
	MaxIndex int
}

// startRecord is the wire form of consensus.Start. consensus.Ledger is an
// opaque, unexported-field type built by NewLedger, not a serializable
// value in its own right — the Voting-Power Ledger is itself a collaborator
// input per spec §1, so the WAL persists the inputs used to build it
// (validators, schedule) rather than the Ledger value, and replay
// reconstructs it with NewLedger.
type startRecord struct {
	Height     int64
	Validators []validatorRecord
	Schedule   []string
	Timeouts   consensus.TimeoutConfig
	Local      string
	HasLocal   bool
}

type validatorRecord struct {
	ID    string
	Power int64
}

// NewStartMessage encodes the event that begins a height.
func NewStartMessage(height consensus.Height, validators []consensus.Validator, schedule []consensus.ValidatorID, timeouts consensus.TimeoutConfig, local *consensus.ValidatorID) (*Message, error) {
	rec := startRecord{
		Height:   int64(height),
		Timeouts: timeouts,
	}
	for _, v := range validators {
		rec.Validators = append(rec.Validators, validatorRecord{ID: string(v.ID), Power: int64(v.Power)})
	}
	for _, id := range schedule {
		rec.Schedule = append(rec.Schedule, string(id))
	}
	if local != nil {
		rec.HasLocal = true
		rec.Local = string(*local)
	}
	data, err := cbor.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MsgTypeStart, Height: int64(height), Data: data}, nil
}

// DecodeStart rebuilds the consensus.Start event (and the Ledger it needs)
// from a MsgTypeStart record.
func DecodeStart(data []byte) (consensus.Start, error) {
	var rec startRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return consensus.Start{}, err
	}
	validators := make([]consensus.Validator, len(rec.Validators))
	for i, v := range rec.Validators {
		validators[i] = consensus.Validator{ID: consensus.ValidatorID(v.ID), Power: consensus.Power(v.Power)}
	}
	schedule := make([]consensus.ValidatorID, len(rec.Schedule))
	for i, id := range rec.Schedule {
		schedule[i] = consensus.ValidatorID(id)
	}
	ledger, err := consensus.NewLedger(validators, schedule)
	if err != nil {
		return consensus.Start{}, fmt.Errorf("wal: rebuilding ledger: %w", err)
	}
	var local *consensus.ValidatorID
	if rec.HasLocal {
		id := consensus.ValidatorID(rec.Local)
		local = &id
	}
	return consensus.Start{
		Height:   consensus.Height(rec.Height),
		Ledger:   ledger,
		Timeouts: rec.Timeouts,
		Local:    local,
	}, nil
}

// NewProposalMessage creates a WAL message for a received proposal.
func NewProposalMessage(e consensus.ProposalReceived) (*Message, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:   MsgTypeProposal,
		Height: int64(e.Proposal.Height),
		Round:  int32(e.Proposal.Round),
		Data:   data,
	}, nil
}

// DecodeProposal decodes a proposal-received event from WAL message data.
func DecodeProposal(data []byte) (consensus.ProposalReceived, error) {
	var e consensus.ProposalReceived
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// NewPrevoteMessage creates a WAL message for a received prevote.
func NewPrevoteMessage(e consensus.PrevoteReceived) (*Message, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:   MsgTypeVote,
		Height: int64(e.Vote.Height),
		Round:  int32(e.Vote.Round),
		Data:   data,
	}, nil
}

// DecodePrevote decodes a prevote-received event from WAL message data.
func DecodePrevote(data []byte) (consensus.PrevoteReceived, error) {
	var e consensus.PrevoteReceived
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// NewPrecommitMessage creates a WAL message for a received precommit.
func NewPrecommitMessage(e consensus.PrecommitReceived) (*Message, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:   MsgTypeVote,
		Height: int64(e.Vote.Height),
		Round:  int32(e.Vote.Round),
		Data:   data,
	}, nil
}

// DecodePrecommit decodes a precommit-received event from WAL message data.
func DecodePrecommit(data []byte) (consensus.PrecommitReceived, error) {
	var e consensus.PrecommitReceived
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// voteKindOf peeks at a MsgTypeVote record's embedded Vote.Kind without
// committing to PrevoteReceived or PrecommitReceived, so a reader can pick
// the right Decode* function.
func voteKindOf(data []byte) (consensus.VoteKind, error) {
	var probe struct {
		Vote consensus.Vote
	}
	if err := cbor.Unmarshal(data, &probe); err != nil {
		return 0, err
	}
	return probe.Vote.Kind, nil
}

// DecodeVoteEvent decodes a MsgTypeVote record into whichever of
// PrevoteReceived/PrecommitReceived its embedded vote kind names.
func DecodeVoteEvent(data []byte) (consensus.Event, error) {
	kind, err := voteKindOf(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case consensus.VotePrevote:
		return DecodePrevote(data)
	case consensus.VotePrecommit:
		return DecodePrecommit(data)
	default:
		return nil, fmt.Errorf("wal: unknown vote kind %d in record", kind)
	}
}

// NewBlockReadyMessage creates a WAL message for a local block becoming
// available to propose.
func NewBlockReadyMessage(height consensus.Height, e consensus.LocalBlockReady) (*Message, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MsgTypeBlockReady, Height: int64(height), Round: int32(e.Round), Data: data}, nil
}

// DecodeBlockReady decodes a local-block-ready event from WAL message data.
func DecodeBlockReady(data []byte) (consensus.LocalBlockReady, error) {
	var e consensus.LocalBlockReady
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// NewTimeoutMessage creates a WAL message for a fired timer.
func NewTimeoutMessage(height consensus.Height, e consensus.TimerFired) (*Message, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MsgTypeTimeout, Height: int64(height), Round: int32(e.Round), Data: data}, nil
}

// DecodeTimeout decodes a timer-fired event from WAL message data.
func DecodeTimeout(data []byte) (consensus.TimerFired, error) {
	var e consensus.TimerFired
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// NewVetoMessage creates a WAL message for an operator veto.
func NewVetoMessage(height consensus.Height, e consensus.OperatorVeto) (*Message, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MsgTypeVeto, Height: int64(height), Round: int32(e.Round), Data: data}, nil
}

// DecodeVeto decodes an operator-veto event from WAL message data.
func DecodeVeto(data []byte) (consensus.OperatorVeto, error) {
	var e consensus.OperatorVeto
	err := cbor.Unmarshal(data, &e)
	return e, err
}

// NewEndHeightMessage creates a WAL message marking the end of a height's
// segment; it carries no payload.
func NewEndHeightMessage(height consensus.Height) *Message {
	return &Message{Type: MsgTypeEndHeight, Height: int64(height)}
}

// DecodeEvent decodes any non-structural message back into its
// consensus.Event, dispatching on Type. MsgTypeEndHeight and
// MsgTypeUnknown have no corresponding event and return an error.
func DecodeEvent(msg *Message) (consensus.Event, error) {
	switch msg.Type {
	case MsgTypeStart:
		return DecodeStart(msg.Data)
	case MsgTypeProposal:
		return DecodeProposal(msg.Data)
	case MsgTypeVote:
		return DecodeVoteEvent(msg.Data)
	case MsgTypeBlockReady:
		return DecodeBlockReady(msg.Data)
	case MsgTypeTimeout:
		return DecodeTimeout(msg.Data)
	case MsgTypeVeto:
		return DecodeVeto(msg.Data)
	default:
		return nil, fmt.Errorf("wal: message type %d has no event encoding", msg.Type)
	}
}

// NopWAL is a no-op WAL implementation for testing
type NopWAL struct{}

func (w *NopWAL) Write(msg *Message) error                              { return nil }
func (w *NopWAL) WriteSync(msg *Message) error                          { return nil }
func (w *NopWAL) FlushAndSync() error                                   { return nil }
func (w *NopWAL) SearchForEndHeight(height int64) (Reader, bool, error) { return nil, false, nil }
func (w *NopWAL) Start() error                                          { return nil }
func (w *NopWAL) Stop() error                                           { return nil }
func (w *NopWAL) Group() *Group                                         { return nil }

// Ensure NopWAL implements WAL
var _ WAL = (*NopWAL)(nil)

// NopReader is a no-op reader
type NopReader struct{}

func (r *NopReader) Read() (*Message, error) { return nil, io.EOF }
func (r *NopReader) Close() error            { return nil }

var _ Reader = (*NopReader)(nil)
