// Package metrics exports consensus progress as Prometheus instruments.
//
// Grounded on engine/engine.go's Metrics struct and GetMetrics accessor,
// which exposed the same fields (height, round, step, validator set size,
// total voting power, local-is-validator, proposer) as a plain polled
// struct; this package replaces that struct with real
// github.com/prometheus/client_golang instruments (pulled into the module
// graph by the pack's luxfi-vm example) so a driver can scrape them over
// /metrics instead of polling GetMetrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/simperby-go/vetomint/consensus"
)

const namespace = "vetomint"

// Collector holds every instrument one running height instance updates.
// A single Collector is shared by all heights a process drives; Height and
// Round reset backwards are expected (a height advances monotonically
// within a run, but a process restart replays from an earlier height).
type Collector struct {
	Height           prometheus.Gauge
	Round            prometheus.Gauge
	Step             *prometheus.GaugeVec
	Validators       prometheus.Gauge
	TotalVotingPower prometheus.Gauge
	IsProposer       prometheus.Gauge

	Decisions         prometheus.Counter
	RoundAdvances     prometheus.Counter
	EquivocationsSeen prometheus.Counter
	OperatorVetoes    prometheus.Counter
	ActionsEmitted    *prometheus.CounterVec
}

// NewCollector builds a Collector with all instruments initialized to
// zero/unknown. Call MustRegister (or Registry.MustRegister(c.Collectors()...))
// to expose it to a scraper.
func NewCollector() *Collector {
	return &Collector{
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "height", Help: "Current height being driven.",
		}),
		Round: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "round", Help: "Current round within the height.",
		}),
		Step: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "round_step", Help: "1 for the current round's step, 0 for the others.",
		}, []string{"step"}),
		Validators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "validators", Help: "Number of validators in the current height's ledger.",
		}),
		TotalVotingPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "total_voting_power", Help: "Sum of voting power across the current ledger.",
		}),
		IsProposer: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "is_proposer", Help: "1 if the local validator is this round's proposer.",
		}),
		Decisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "decisions_total", Help: "Heights finalized (consensus.Decide actions emitted).",
		}),
		RoundAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "round_advances_total", Help: "consensus.AdvanceRound actions emitted.",
		}),
		EquivocationsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "equivocations_total", Help: "RecordEquivocation actions emitted by the vote tally.",
		}),
		OperatorVetoes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "operator_vetoes_total", Help: "OperatorVeto events delivered to the core.",
		}),
		ActionsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "actions_total", Help: "Actions emitted by Step, labeled by action kind.",
		}, []string{"kind"}),
	}
}

// Collectors returns every instrument, for bulk registration:
// registry.MustRegister(c.Collectors()...).
func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.Height, c.Round, c.Step, c.Validators, c.TotalVotingPower, c.IsProposer,
		c.Decisions, c.RoundAdvances, c.EquivocationsSeen,
		c.OperatorVetoes, c.ActionsEmitted,
	}
}

// allSteps fixes the label set on the Step gauge vec so every scrape sees a
// stable set of time series, rather than one appearing only once that step
// is first observed.
var allSteps = [...]consensus.RoundStep{
	consensus.StepAwaitProposal,
	consensus.StepPrevoted,
	consensus.StepPrecommitted,
	consensus.StepDecided,
}

// ObserveState snapshots a height's State onto the gauges. Called after
// every Step invocation by the driver loop.
func (c *Collector) ObserveState(s *consensus.State) {
	c.Height.Set(float64(s.Height))
	c.Round.Set(float64(s.Round))

	current := consensus.StepAwaitProposal
	if rs, ok := s.Rounds[s.Round]; ok {
		current = rs.Step
	}
	for _, step := range allSteps {
		v := 0.0
		if step == current {
			v = 1.0
		}
		c.Step.WithLabelValues(step.String()).Set(v)
	}

	if s.Ledger != nil {
		c.Validators.Set(float64(s.Ledger.Size()))
		c.TotalVotingPower.Set(float64(s.Ledger.Total()))
		if s.Local != nil && s.Ledger.Proposer(s.Round) == *s.Local {
			c.IsProposer.Set(1)
		} else {
			c.IsProposer.Set(0)
		}
	}
}

// ObserveActions tallies the Actions a Step call returned. Called once per
// Step invocation, right after ObserveState.
func (c *Collector) ObserveActions(actions []consensus.Action) {
	for _, a := range actions {
		switch a.(type) {
		case consensus.Decide:
			c.Decisions.Inc()
			c.ActionsEmitted.WithLabelValues("Decide").Inc()
		case consensus.AdvanceRound:
			c.RoundAdvances.Inc()
			c.ActionsEmitted.WithLabelValues("AdvanceRound").Inc()
		case consensus.RecordEquivocation:
			c.EquivocationsSeen.Inc()
			c.ActionsEmitted.WithLabelValues("RecordEquivocation").Inc()
		case consensus.BroadcastProposal:
			c.ActionsEmitted.WithLabelValues("BroadcastProposal").Inc()
		case consensus.BroadcastVote:
			c.ActionsEmitted.WithLabelValues("BroadcastVote").Inc()
		case consensus.StartTimer:
			c.ActionsEmitted.WithLabelValues("StartTimer").Inc()
		case consensus.CancelTimer:
			c.ActionsEmitted.WithLabelValues("CancelTimer").Inc()
		case consensus.RequestBlockCandidate:
			c.ActionsEmitted.WithLabelValues("RequestBlockCandidate").Inc()
		}
	}
}

// ObserveVeto increments the operator-veto counter; called by the driver
// whenever it delivers a consensus.OperatorVeto event to Step.
func (c *Collector) ObserveVeto() {
	c.OperatorVetoes.Inc()
}
