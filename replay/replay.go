// Package replay implements crash recovery: rebuilding a height's
// in-memory consensus.State by replaying its persisted event log through
// consensus.Step (spec §6 "Persisted event log").
//
// Grounded on engine/replay.go's ReplayWAL/ReplayCatchup, adapted from
// reconstructing Tendermint vote-set internals field by field to simply
// re-running every logged event through the same pure Step function a live
// height uses — replay and live operation share one code path, so there is
// no separate "recovery logic" to keep in sync with the state machine.
package replay

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/simperby-go/vetomint/consensus"
	"github.com/simperby-go/vetomint/wal"
)

// Result summarizes one replay run.
type Result struct {
	MessagesReplayed int
	FoundEndHeight   bool
	FinalActions     []consensus.Action
}

// Height rebuilds targetHeight's consensus.State by replaying every WAL
// message recorded for it, starting just after the previous height's
// MsgTypeEndHeight marker, or from the WAL's first segment when no such
// marker exists (e.g. the first height the WAL was written for). Returns
// the rebuilt state and a summary of what was replayed. A height with no
// records in the WAL replays zero messages and returns the zero
// *consensus.State — the caller is then expected to deliver a fresh Start
// event as it would for any never-before-seen height.
func Height(r wal.WAL, targetHeight consensus.Height, logger *zap.Logger) (*consensus.State, Result, error) {
	logger = logger.With(zap.Int64("target_height", int64(targetHeight)))

	reader, found, err := r.SearchForEndHeight(int64(targetHeight) - 1)
	if err != nil {
		return nil, Result{}, fmt.Errorf("replay: searching WAL: %w", err)
	}
	if !found {
		// No end marker for the previous height: read the log from its first
		// segment; the height filter below keeps only targetHeight's records.
		g := r.Group()
		if g == nil {
			logger.Info("no prior end-height marker found, nothing to replay")
			return &consensus.State{}, Result{}, nil
		}
		reader, err = wal.OpenWALForReading(g.Dir)
		if errors.Is(err, wal.ErrWALNotFound) {
			logger.Info("WAL has no segments, nothing to replay")
			return &consensus.State{}, Result{}, nil
		}
		if err != nil {
			return nil, Result{}, fmt.Errorf("replay: opening WAL: %w", err)
		}
	}
	defer reader.Close()

	state := &consensus.State{}
	var res Result

	for {
		msg, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, res, fmt.Errorf("replay: reading WAL: %w", err)
		}
		if msg.Height != int64(targetHeight) {
			continue
		}

		if msg.Type == wal.MsgTypeEndHeight {
			res.FoundEndHeight = true
			break
		}

		event, err := wal.DecodeEvent(msg)
		if err != nil {
			logger.Warn("skipping undecodable WAL record", zap.Uint8("type", uint8(msg.Type)), zap.Error(err))
			continue
		}

		actions := consensus.Step(state, event)
		res.FinalActions = actions
		res.MessagesReplayed++
	}

	logger.Info("replay complete",
		zap.Int("messages_replayed", res.MessagesReplayed),
		zap.Bool("found_end_height", res.FoundEndHeight),
		zap.Int64("recovered_height", int64(state.Height)),
		zap.Int64("recovered_round", int64(state.Round)),
	)

	return state, res, nil
}
