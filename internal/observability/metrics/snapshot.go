package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const attemptsMetricName = namespace + "_" + subsystem + "_attempts_total"

// OutcomeSnapshot summarizes booking attempts since process start.
type OutcomeSnapshot struct {
	Succeeded    int64            `json:"succeeded"`
	Failed       int64            `json:"failed"`
	Rejected     int64            `json:"rejected"`
	FailedByStep map[string]int64 `json:"failed_by_step"`
	FailingSteps []string         `json:"failing_steps"`
}

// SnapshotOutcomes reads the attempts counter back out of a gatherer.
func SnapshotOutcomes(gatherer prometheus.Gatherer) OutcomeSnapshot {
	snap := OutcomeSnapshot{FailedByStep: map[string]int64{}}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == attemptsMetricName {
			family = mf
			break
		}
	}
	if family == nil {
		return snap
	}

	for _, metric := range family.Metric {
		if metric == nil || metric.GetCounter() == nil {
			continue
		}
		count := int64(metric.GetCounter().GetValue())
		switch labelValue(metric, "outcome") {
		case "succeeded":
			snap.Succeeded += count
		case "failed":
			snap.Failed += count
			snap.FailedByStep[labelValue(metric, "step")] += count
		case "rejected":
			snap.Rejected += count
		}
	}

	for step := range snap.FailedByStep {
		snap.FailingSteps = append(snap.FailingSteps, step)
	}
	sort.Slice(snap.FailingSteps, func(i, j int) bool {
		a, b := snap.FailingSteps[i], snap.FailingSteps[j]
		if snap.FailedByStep[a] != snap.FailedByStep[b] {
			return snap.FailedByStep[a] > snap.FailedByStep[b]
		}
		return a < b
	})
	return snap
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp == nil {
			continue
		}
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
