package session

// State is the position of a session in its lifecycle.
type State int

const (
	Uninitialized State = iota
	AwaitingReplay
	AwaitingPlayerMove
	Solved
	FailedThenSolved
	Abandoned
	NoPuzzle
)

var stateNames = [...]string{
	Uninitialized:      "uninitialized",
	AwaitingReplay:     "awaiting_replay",
	AwaitingPlayerMove: "awaiting_player_move",
	Solved:             "solved",
	FailedThenSolved:   "failed_then_solved",
	Abandoned:          "abandoned",
	NoPuzzle:           "no_puzzle_available",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further moves are accepted in this state.
func (s State) Terminal() bool {
	return s == Solved || s == FailedThenSolved || s == Abandoned || s == NoPuzzle
}

// Status is the outcome of a session operation, also delivered to observers.
type Status int

const (
	// Ignored is returned by operations that were no-ops, such as a move
	// submitted while the session is inactive or a reply is pending.
	Ignored Status = iota
	Ready
	CorrectMove
	IncorrectMove
	SolvedFirstTry
	SolvedWithHelp
	NoPuzzleAvailable
)

var statusNames = [...]string{
	Ignored:           "ignored",
	Ready:             "ready",
	CorrectMove:       "correct_move",
	IncorrectMove:     "incorrect_move",
	SolvedFirstTry:    "solved_first_try",
	SolvedWithHelp:    "solved_with_help",
	NoPuzzleAvailable: "no_puzzle_available",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// MarshalText lets statuses travel as their names in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is delivered to observers whenever the session emits a status.
type Event struct {
	Status Status
	// Move is the UCI move the status refers to, if any.
	Move string
}

// Observer receives session events. Observers run after the session has
// released its lock, so they may call back into the session.
type Observer func(Event)
