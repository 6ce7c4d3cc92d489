package sage

// Stage identifies a state of the workflow machine.
type Stage int

const (
	StageCreateAnalysts Stage = iota
	StageConductInterview
	StageWriteReport
	StageWriteIntroConclusion
	StageFinalizeReport
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageCreateAnalysts:
		return "create_analysts"
	case StageConductInterview:
		return "conduct_interview"
	case StageWriteReport:
		return "write_report"
	case StageWriteIntroConclusion:
		return "write_intro_conclusion"
	case StageFinalizeReport:
		return "finalize_report"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Stages lists every stage that runs a node, in graph order.
var Stages = []Stage{
	StageCreateAnalysts,
	StageConductInterview,
	StageWriteReport,
	StageWriteIntroConclusion,
	StageFinalizeReport,
}

// Next returns the stage that follows stage given the merged state.
// The interview loop is the only conditional edge.
func Next(stage Stage, s State) Stage {
	switch stage {
	case StageCreateAnalysts:
		return StageConductInterview
	case StageConductInterview:
		if s.Cursor < len(s.Analysts) {
			return StageConductInterview
		}
		return StageWriteReport
	case StageWriteReport:
		return StageWriteIntroConclusion
	case StageWriteIntroConclusion:
		return StageFinalizeReport
	default:
		return StageDone
	}
}
