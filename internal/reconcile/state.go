package reconcile

// State is the freshness of a tracked partition.
//
//	Stale      --refresh-->  Refreshing
//	Refreshing --success-->  Fresh
//	Refreshing --failure-->  Stale
//	Fresh      --invalidate--> Stale (and immediately Refreshing)
type State int

const (
	Stale State = iota + 1
	Refreshing
	Fresh
)

func (s State) String() string {
	switch s {
	case Stale:
		return "stale"
	case Refreshing:
		return "refreshing"
	case Fresh:
		return "fresh"
	default:
		return "untracked"
	}
}

type partition struct {
	state State
	// pending records an invalidation that arrived while a fetch was in
	// flight; it causes exactly one follow-up fetch.
	pending bool
	// seq identifies the in-flight fetch; completions carrying another value
	// belong to a fetch issued before the partition was forgotten.
	seq uint64
}
