// Package consensus implements the Vetomint consensus core: a pure,
// deterministic, single-threaded state machine that drives one height of a
// permissioned BFT chain through its rounds.
//
// The package exposes a single entry point, Step, which consumes one Event,
// updates the State it is given in place, and returns the ordered list of
// Actions the caller must carry out (broadcast a vote, start a timer, record
// a decision). The core never calls out: no goroutines, no channels, no
// mutexes, no network, no clock access (a timer's expiry arrives as a
// TimerFired event). This makes
// it replayable byte-for-byte from a persisted event log and testable by
// property over randomized event interleavings.
//
// Vetomint differs from vanilla Tendermint in three ways: very long
// per-round timeouts (validators are intermittently online), an explicit
// operator-driven veto that displaces an unfaithful stable leader by casting
// a nil prevote before any timeout fires, and an early-termination rule at
// 5/6 of voting power that avoids waiting out a timeout on a split vote.
package consensus
