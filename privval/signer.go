package privval

import (
	"errors"
	"fmt"

	"github.com/simperby-go/vetomint/consensus"
)

// Errors
var (
	ErrDoubleSign       = errors.New("double sign attempt")
	ErrSignerNotFound   = errors.New("signer not found")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrHeightRegression = errors.New("height regression")
	ErrRoundRegression  = errors.New("round regression")
	ErrStepRegression   = errors.New("step regression")
)

// SignedVote pairs a consensus.Vote with the signature over its canonical
// bytes. consensus.Vote itself carries no Signature field — signing and
// signature verification are the external collaborator spec §1 delegates
// out of the pure core, so the signature lives in this wrapper, never in
// the core's own types.
type SignedVote struct {
	Vote      consensus.Vote
	Signature []byte
}

// SignedProposal pairs a consensus.Proposal with its signature, for the
// same reason as SignedVote.
type SignedProposal struct {
	Proposal  consensus.Proposal
	Signature []byte
}

// PrivValidator signs consensus messages on behalf of one validator
// identity, guarding against double-signing.
type PrivValidator interface {
	// GetPubKey returns the public key.
	GetPubKey() []byte

	// SignVote signs a vote, checking for double-sign.
	SignVote(chainID string, vote consensus.Vote) (SignedVote, error)

	// SignProposal signs a proposal.
	SignProposal(chainID string, proposal consensus.Proposal) (SignedProposal, error)

	// GetAddress returns the validator address. FilePV returns the
	// validator identifier itself, not a key hash.
	GetAddress() []byte
}

// LastSignState tracks the last signed vote for double-sign prevention.
type LastSignState struct {
	Height    consensus.Height
	Round     consensus.Round
	Step      int8 // 0 = proposal, 1 = prevote, 2 = precommit
	Signature []byte
	Block     consensus.BlockID
}

// Step values for double-sign prevention. Proposals come before votes in a
// round.
const (
	StepProposal  int8 = 0
	StepPrevote   int8 = 1
	StepPrecommit int8 = 2
)

// CheckHRS checks if a new vote would be a double sign. Returns nil if
// signing is allowed, an error otherwise.
func (lss *LastSignState) CheckHRS(height consensus.Height, round consensus.Round, step int8) error {
	if lss.Height > height {
		return ErrHeightRegression
	}

	if lss.Height == height {
		if lss.Round > round {
			return ErrRoundRegression
		}

		if lss.Round == round {
			if lss.Step > step {
				return ErrStepRegression
			}
			if lss.Step == step {
				// Same H/R/S — this would be a double sign unless it's the
				// same vote (the caller checks that separately).
				return ErrDoubleSign
			}
		}
	}

	return nil
}

// VoteStep returns the step value for a vote kind.
func VoteStep(kind consensus.VoteKind) int8 {
	switch kind {
	case consensus.VotePrevote:
		return StepPrevote
	case consensus.VotePrecommit:
		return StepPrecommit
	default:
		panic(fmt.Sprintf("privval: invalid vote kind: %v", kind))
	}
}
