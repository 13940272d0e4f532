package domain

import "time"

// Challenge lifecycle states.
const (
	StatePending = "Pending"
	StateCleared = "Cleared"
	StateFailed  = "Failed"
)

// Answer results reported by clients. Anything other than ResultCorrect counts as wrong.
const (
	ResultCorrect = "Correct"
	ResultWrong   = "Wrong"
)

// Sticky flag values as stored in Groups.
const (
	FlagUnset   = "0"
	FlagCleared = "1"
)

// DefaultRoomID is the room assigned to challenges registered from the web admin UI.
const DefaultRoomID = "Web"

// TerminalResults are the answer results that consume a question for a group.
var TerminalResults = []string{ResultCorrect, ResultWrong}

// Group is a team of players taking part in the hunt.
type Group struct {
	GroupID         string
	Name            string
	PlayerCount     int
	ChallengesCount int
	WasCleared      string
	SnackState      string
}

// Challenge is one attempt of a group at a difficulty in a room.
type Challenge struct {
	ChallengeID string
	GroupID     string
	Difficulty  int
	RoomID      string
	State       string
	StartTime   time.Time
}

// ChallengeContext is a challenge joined with the group that owns it.
type ChallengeContext struct {
	ChallengeID string
	GroupID     string
	GroupName   string
	Difficulty  int
	State       string
	StartTime   time.Time
}

// Question is a catalog entry. Field names match the stored row.
type Question struct {
	ID           string `json:"ID"`
	Difficulty   int    `json:"Difficulty"`
	Question     string `json:"Question"`
	Answer       string `json:"Answer"`
	CollectCount int    `json:"CollectCount"`
	WrongCount   int    `json:"WrongCount"`
}

// AnsweredQuestion is one answer attempt. Duplicates are allowed.
type AnsweredQuestion struct {
	GroupID          string
	QuestionID       string
	Result           string
	ChallengerAnswer string
	AnsweredAt       time.Time
}

// ClearTime records how long a cleared challenge took.
type ClearTime struct {
	ElapsedTime int64
	ChallengeID string
	Difficulty  int
	GroupName   string
	ClearedAt   time.Time
}

// Counter names a per-question aggregate.
type Counter string

const (
	CounterCollect Counter = "CollectCount"
	CounterWrong   Counter = "WrongCount"
)

// ClearBoardEntry is one ranked row of a clear board.
type ClearBoardEntry struct {
	Rank        int       `json:"rank"`
	GroupName   string    `json:"groupName"`
	ElapsedTime int64     `json:"elapsedTime"`
	ChallengeID string    `json:"challengeId"`
	ClearedAt   time.Time `json:"clearedAt"`
}

// ClearBoard lists the fastest clears at one difficulty.
type ClearBoard struct {
	Difficulty int               `json:"difficulty"`
	Entries    []ClearBoardEntry `json:"entries"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
