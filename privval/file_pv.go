package privval

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/simperby-go/vetomint/consensus"
)

const (
	keyFilePerm   = 0600
	stateFilePerm = 0600
)

// FilePV is a file-based private validator: an ed25519 key pair plus a
// double-sign guard, standing in for the signing collaborator spec §1
// delegates out of the pure core. A production deployment would replace
// this with an HSM- or KMS-backed PrivValidator.
type FilePV struct {
	mu sync.Mutex

	keyFilePath   string
	stateFilePath string

	id      consensus.ValidatorID
	pubKey  ed25519.PublicKey
	privKey ed25519.PrivateKey

	lastSignState LastSignState
}

// FilePVKey represents the key file structure.
type FilePVKey struct {
	ID      string `json:"id"`
	PubKey  []byte `json:"pub_key"`
	PrivKey []byte `json:"priv_key"`
}

// FilePVState represents the state file structure.
type FilePVState struct {
	Height    int64  `json:"height"`
	Round     int64  `json:"round"`
	Step      int8   `json:"step"`
	Signature []byte `json:"signature,omitempty"`
	Block     string `json:"block,omitempty"`
}

// NewFilePV loads a file-based private validator. A missing key file is
// replaced by a newly generated key and a missing state file by a fresh sign
// state, each saved before NewFilePV returns.
func NewFilePV(id consensus.ValidatorID, keyFilePath, stateFilePath string) (*FilePV, error) {
	pv := &FilePV{
		id:            id,
		keyFilePath:   keyFilePath,
		stateFilePath: stateFilePath,
	}

	if err := pv.loadKey(); err != nil {
		return nil, err
	}
	if err := pv.loadState(); err != nil {
		return nil, err
	}

	return pv, nil
}

// GenerateFilePV generates a new file-based private validator.
func GenerateFilePV(id consensus.ValidatorID, keyFilePath, stateFilePath string) (*FilePV, error) {
	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	pv := &FilePV{
		id:            id,
		keyFilePath:   keyFilePath,
		stateFilePath: stateFilePath,
		pubKey:        pubKey,
		privKey:       privKey,
	}

	if err := pv.saveKey(); err != nil {
		return nil, err
	}
	if err := pv.saveState(); err != nil {
		return nil, err
	}

	return pv, nil
}

func (pv *FilePV) loadKey() error {
	data, err := os.ReadFile(pv.keyFilePath)
	if os.IsNotExist(err) {
		pubKey, privKey, err := ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		pv.pubKey = pubKey
		pv.privKey = privKey
		return pv.saveKey()
	}
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	var key FilePVKey
	if err := json.Unmarshal(data, &key); err != nil {
		return fmt.Errorf("failed to parse key file: %w", err)
	}

	if len(key.PubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key size")
	}
	if len(key.PrivKey) != ed25519.PrivateKeySize {
		return fmt.Errorf("invalid private key size")
	}

	pv.pubKey = key.PubKey
	pv.privKey = key.PrivKey
	if key.ID != "" {
		pv.id = consensus.ValidatorID(key.ID)
	}

	return nil
}

func (pv *FilePV) saveKey() error {
	dir := filepath.Dir(pv.keyFilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	key := FilePVKey{
		ID:      string(pv.id),
		PubKey:  pv.pubKey,
		PrivKey: pv.privKey,
	}

	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	return os.WriteFile(pv.keyFilePath, data, keyFilePerm)
}

func (pv *FilePV) loadState() error {
	data, err := os.ReadFile(pv.stateFilePath)
	if os.IsNotExist(err) {
		pv.lastSignState = LastSignState{Height: -1, Round: consensus.NoRound}
		return pv.saveState()
	}
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state FilePVState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	pv.lastSignState = LastSignState{
		Height:    consensus.Height(state.Height),
		Round:     consensus.Round(state.Round),
		Step:      state.Step,
		Signature: state.Signature,
		Block:     consensus.BlockID(state.Block),
	}

	return nil
}

func (pv *FilePV) saveState() error {
	dir := filepath.Dir(pv.stateFilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	state := FilePVState{
		Height:    int64(pv.lastSignState.Height),
		Round:     int64(pv.lastSignState.Round),
		Step:      pv.lastSignState.Step,
		Signature: pv.lastSignState.Signature,
		Block:     string(pv.lastSignState.Block),
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return os.WriteFile(pv.stateFilePath, data, stateFilePerm)
}

// GetPubKey returns the public key.
func (pv *FilePV) GetPubKey() []byte {
	return pv.pubKey
}

// GetAddress returns the validator address: the validator identifier
// itself, since consensus.ValidatorID (not a key hash) is this repo's
// addressing scheme.
func (pv *FilePV) GetAddress() []byte {
	return []byte(pv.id)
}

// voteSignBytes derives the canonical byte string a vote's signature
// covers: a deterministic cbor encoding of (chainID, vote), so the same
// logical vote always produces the same signature, and different chains
// can never cross-sign each other's votes.
func voteSignBytes(chainID string, vote consensus.Vote) ([]byte, error) {
	return cbor.Marshal(struct {
		ChainID string
		Vote    consensus.Vote
	}{chainID, vote})
}

func proposalSignBytes(chainID string, proposal consensus.Proposal) ([]byte, error) {
	return cbor.Marshal(struct {
		ChainID  string
		Proposal consensus.Proposal
	}{chainID, proposal})
}

// SignVote signs a vote, checking for double-sign. Re-signing the exact
// same vote the validator already signed at this (height, round, kind) is
// idempotent and returns the cached signature, rather than erroring — a
// caller retrying after a crash between signing and broadcasting must not
// be blocked by its own prior signature.
func (pv *FilePV) SignVote(chainID string, vote consensus.Vote) (SignedVote, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	step := VoteStep(vote.Kind)

	if err := pv.lastSignState.CheckHRS(vote.Height, vote.Round, step); err != nil {
		if err == ErrDoubleSign && pv.lastSignState.Block == vote.Block {
			return SignedVote{Vote: vote, Signature: pv.lastSignState.Signature}, nil
		}
		return SignedVote{}, err
	}

	signBytes, err := voteSignBytes(chainID, vote)
	if err != nil {
		return SignedVote{}, fmt.Errorf("privval: encoding vote sign bytes: %w", err)
	}
	sig := ed25519.Sign(pv.privKey, signBytes)

	pv.lastSignState.Height = vote.Height
	pv.lastSignState.Round = vote.Round
	pv.lastSignState.Step = step
	pv.lastSignState.Signature = sig
	pv.lastSignState.Block = vote.Block

	if err := pv.saveState(); err != nil {
		return SignedVote{}, err
	}

	return SignedVote{Vote: vote, Signature: sig}, nil
}

// SignProposal signs a proposal. Proposals are not subject to the
// double-sign guard (a proposer may legitimately re-propose across a
// restart); only votes are.
func (pv *FilePV) SignProposal(chainID string, proposal consensus.Proposal) (SignedProposal, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	signBytes, err := proposalSignBytes(chainID, proposal)
	if err != nil {
		return SignedProposal{}, fmt.Errorf("privval: encoding proposal sign bytes: %w", err)
	}
	sig := ed25519.Sign(pv.privKey, signBytes)

	return SignedProposal{Proposal: proposal, Signature: sig}, nil
}

// VerifyVote checks a SignedVote's signature against a known public key.
func VerifyVote(chainID string, sv SignedVote, pubKey ed25519.PublicKey) error {
	signBytes, err := voteSignBytes(chainID, sv.Vote)
	if err != nil {
		return fmt.Errorf("privval: encoding vote sign bytes: %w", err)
	}
	if !ed25519.Verify(pubKey, signBytes, sv.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyProposal checks a SignedProposal's signature against a known
// public key.
func VerifyProposal(chainID string, sp SignedProposal, pubKey ed25519.PublicKey) error {
	signBytes, err := proposalSignBytes(chainID, sp.Proposal)
	if err != nil {
		return fmt.Errorf("privval: encoding proposal sign bytes: %w", err)
	}
	if !ed25519.Verify(pubKey, signBytes, sp.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Reset resets the last sign state (use with caution!).
func (pv *FilePV) Reset() error {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	pv.lastSignState = LastSignState{Height: -1, Round: consensus.NoRound}
	return pv.saveState()
}

// Ensure FilePV implements PrivValidator.
var _ PrivValidator = (*FilePV)(nil)
