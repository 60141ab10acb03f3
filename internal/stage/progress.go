package stage

// Progress is the generation pipeline stage for a deal. The value is owned
// by the orchestrator; this service records what it reports and derives UI
// gating from it. Stages form a total order (see stageOrder).
type Progress string

const (
	NotStarted             Progress = "NOT_STARTED"
	SOWInProgress          Progress = "SOW_IN_PROGRESS"
	SOWGenerated           Progress = "SOW_GENERATED"
	ArchitectureInProgress Progress = "ARCHITECTURE_IN_PROGRESS"
	ArchitectureGenerated  Progress = "ARCHITECTURE_GENERATED"
	TCOInProgress          Progress = "TCO_IN_PROGRESS"
	TCOGenerated           Progress = "TCO_GENERATED"
	ReadyForSubmission     Progress = "READY_FOR_SUBMISSION"
	SubmittedForReview     Progress = "SUBMITTED_FOR_REVIEW"
)

// stageOrder fixes the total order used by every at-or-past predicate.
var stageOrder = []Progress{
	NotStarted,
	SOWInProgress,
	SOWGenerated,
	ArchitectureInProgress,
	ArchitectureGenerated,
	TCOInProgress,
	TCOGenerated,
	ReadyForSubmission,
	SubmittedForReview,
}

var stageRank = func() map[Progress]int {
	m := make(map[Progress]int, len(stageOrder))
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

// Rank returns the position of p in the stage order. Unknown or empty values
// rank as NOT_STARTED so that every predicate fails closed.
func Rank(p Progress) int {
	if r, ok := stageRank[p]; ok {
		return r
	}
	return 0
}

// Valid reports whether p is a recognized stage value.
func Valid(p Progress) bool {
	_, ok := stageRank[p]
	return ok
}

// Stages returns the full stage order, earliest first.
func Stages() []Progress {
	out := make([]Progress, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// atOrPast reports whether p has reached threshold. Unknown p never reaches
// anything past NOT_STARTED.
func atOrPast(p, threshold Progress) bool {
	if !Valid(p) {
		p = NotStarted
	}
	return Rank(p) >= Rank(threshold)
}
