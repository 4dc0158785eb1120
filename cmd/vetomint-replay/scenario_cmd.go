package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simperby-go/vetomint/consensus"
)

func scenarioCommand() *cobra.Command {
	var verbose bool

	c := &cobra.Command{
		Use:   "scenario",
		Short: "Run spec §8's S1 happy-path scenario in memory and print decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHappyPathScenario(verbose)
		},
	}
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every action, not just the decision")
	return c
}

// runHappyPathScenario drives a four-validator, all-online network through
// S1: A proposes, every validator prevotes and precommits the same block,
// and the >2/3 prevote and precommit rules decide without any timer firing.
// One consensus.State per validator, fed the same events in lockstep — the
// minimal standalone version of harness_test.go's newNetwork harness, using
// only the package's exported surface.
func runHappyPathScenario(verbose bool) error {
	validators := []consensus.Validator{
		{ID: "A", Power: 1}, {ID: "B", Power: 1}, {ID: "C", Power: 1}, {ID: "D", Power: 1},
	}
	schedule := []consensus.ValidatorID{"A", "B", "C", "D"}
	ledger, err := consensus.NewLedger(validators, schedule)
	if err != nil {
		return err
	}
	cfg := consensus.TimeoutConfig{
		ProposeBase: 1000, ProposeDelta: 100,
		PrevoteBase: 1000, PrevoteDelta: 100,
		PrecommitBase: 1000, PrecommitDelta: 100,
	}

	nodes := make(map[consensus.ValidatorID]*consensus.State, len(schedule))
	for _, id := range schedule {
		id := id
		s := &consensus.State{}
		consensus.Step(s, consensus.Start{Height: 1, Ledger: ledger, Timeouts: cfg, Local: &id})
		nodes[id] = s
	}

	deliver := func(event consensus.Event) {
		for id, s := range nodes {
			actions := consensus.Step(s, event)
			if verbose {
				for _, a := range actions {
					fmt.Printf("[%s] %#v\n", id, a)
				}
			}
		}
	}

	const block consensus.BlockID = "0xS1BLOCK"
	prop := consensus.Proposal{Height: 1, Round: 0, Block: block, ValidRound: consensus.NoRound, Proposer: "A"}
	deliver(consensus.ProposalReceived{Proposal: prop, SignatureOK: true, BodyValid: true})

	for _, id := range schedule {
		deliver(consensus.PrevoteReceived{
			Vote:        consensus.Vote{Kind: consensus.VotePrevote, Height: 1, Round: 0, Block: block, Signer: id},
			SignatureOK: true,
		})
	}
	for _, id := range schedule {
		deliver(consensus.PrecommitReceived{
			Vote:        consensus.Vote{Kind: consensus.VotePrecommit, Height: 1, Round: 0, Block: block, Signer: id},
			SignatureOK: true,
		})
	}

	for _, id := range schedule {
		s := nodes[id]
		fmt.Printf("node %s: decided=%v block=%q round=%d\n", id, s.Decided, s.DecidedBlock, s.DecidingRound)
	}
	return nil
}
