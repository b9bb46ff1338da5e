package orchestrator

// Stage names a point in the life of a run. Stages are reported when the
// underlying request actually reaches that point.
type Stage string

const (
	StageStarted          Stage = "started"
	StageRequestSent      Stage = "analysis request sent"
	StageResponseReceived Stage = "analysis response received"
	StageResultsMerged    Stage = "results merged"
	StageFailed           Stage = "analysis failed"
	StageSessionReady     Stage = "session ready"
	StageMarketRequested  Stage = "market data requested"
	StageMarketLoaded     Stage = "market data loaded"
)

// Event is one progress notification. Percent is a coarse position within
// the analysis request; market stages report 100.
type Event struct {
	Stage      Stage
	Generation uint64
	Percent    int
}

type ProgressFunc func(Event)

var stagePercent = map[Stage]int{
	StageStarted:          0,
	StageRequestSent:      10,
	StageResponseReceived: 90,
	StageResultsMerged:    100,
	StageFailed:           100,
	StageSessionReady:     0,
	StageMarketRequested:  100,
	StageMarketLoaded:     100,
}

func (f ProgressFunc) emit(stage Stage, generation uint64) {
	if f == nil {
		return
	}
	f(Event{Stage: stage, Generation: generation, Percent: stagePercent[stage]})
}
