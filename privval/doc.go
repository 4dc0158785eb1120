// Package privval implements private validator functionality with double-sign prevention.
//
// A private validator holds the Ed25519 private key used for signing consensus messages
// (proposals, prevotes, precommits). The key responsibility is preventing double-signing,
// which would constitute Byzantine behavior and violate consensus safety.
//
// # Core Interface
//
// PrivValidator defines the interface for signing consensus messages:
//
//	type PrivValidator interface {
//	    GetPubKey() []byte
//	    GetAddress() []byte
//	    SignVote(chainID string, vote consensus.Vote) (SignedVote, error)
//	    SignProposal(chainID string, proposal consensus.Proposal) (SignedProposal, error)
//	}
//
// consensus.Vote and consensus.Proposal carry no Signature field of their
// own — signing is the external collaborator spec §1 delegates out of the
// pure core — so SignVote/SignProposal return a Signed* wrapper pairing
// the value with its signature.
//
// # Double-Sign Prevention
//
// LastSignState tracks the last height/round/step/blockhash signed by this validator.
// Before signing a vote, the validator checks (proposals are signed without
// this guard):
//
//	1. Never sign two different blockhashes at the same height/round/step
//	2. Never regress to a lower height (after restart)
//	3. Persist state BEFORE returning signature (atomic persistence pattern)
//
// This prevents equivocation even across crashes and restarts.
//
// # Implementation
//
// FilePV: File-based private validator with two files:
//
//	- key.json: Ed25519 private key and account name (rarely changes)
//	- state.json: LastSignState (updated on every signature)
//
// Both files are written in place with os.WriteFile; no temporary file or
// rename is used.
//
// # File Format
//
// key.json:
//
//	{
//	  "id": "alice",
//	  "pub_key": "03A2B5...",
//	  "priv_key": "F3C1D2..."
//	}
//
// state.json:
//
//	{
//	  "height": 100,
//	  "round": 2,
//	  "step": 2,
//	  "block": "A1B2C3..."
//	}
//
// # Security Considerations
//
// Private Key Protection:
//	- Key file should have restricted permissions (0600)
//	- Never log or expose the private key
//	- Consider HSM integration for production
//
// Double-Sign Protection:
//	- State file MUST be persisted before returning signature
//	- Files are written with os.WriteFile; no explicit fsync is issued
//	- No lock file is used; FilePV's mutex serializes signing within one process only
//
// # Thread Safety
//
// FilePV uses internal locking to prevent concurrent signing.
// Only one FilePV instance should access the same key/state files.
//
// # Remote Signers
//
// For production deployments, consider:
//	- Hardware security modules (HSMs)
//	- Remote signing services with network protocol
//	- Key sharding and threshold signatures
//
// The PrivValidator interface supports these via custom implementations.
//
// # Usage Example
//
//	// Create or load a private validator
//	pv, err := privval.NewFilePV("alice", "key.json", "state.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Sign a vote
//	vote := consensus.Vote{Kind: consensus.VotePrevote, Height: 100, Round: 0, Block: blockID, Signer: "alice"}
//	signed, err := pv.SignVote("my-chain", vote)
//	if err != nil {
//	    log.Fatal(err) // Might be ErrDoubleSign
//	}
package privval
