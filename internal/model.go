package internal

import (
	"sync"
	"time"
)

const (
	TurnTimeout        = 60 * time.Second
	MaxQuestions       = 20
	GuessAttempts      = 2
	MaxTimeouts        = 3
	DefaultPlayerName  = "Anonymous"
	AnswerDontKnow     = "Non lo so"
	answerDontKnowMark = "?"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusGuessing Status = "guessing"
)

type Role string

const (
	RoleThinker Role = "thinker"
	RoleGuesser Role = "guesser"
)

type TimerKind string

const (
	TimerAsk    TimerKind = "ask"
	TimerAnswer TimerKind = "answer"
)

type Question struct {
	ID        int     `json:"id"`
	AskerID   string  `json:"asker_id"`
	AskerName string  `json:"asker_name"`
	Text      string  `json:"text"`
	Answer    *string `json:"answer"`
}

func (q *Question) Answered() bool {
	return q.Answer != nil
}

type Guess struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	Text         string `json:"text"`
	Correct      bool   `json:"correct"`
	Phase        Status `json:"phase"`
	AttemptsLeft *int   `json:"attempts_left,omitempty"`
}

type LogEntry struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type ChatEntry struct {
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Stopper is the cancel half of a scheduled callback.
type Stopper interface {
	Stop() bool
}

// TurnTimer identifies the single pending timeout of a session. A fired
// callback only acts when every field still matches the session.
type TurnTimer struct {
	Seq        uint64        `json:"-"`
	Kind       TimerKind     `json:"kind"`
	PlayerID   string        `json:"player_id"`
	QuestionID int           `json:"question_id,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Handle     Stopper       `json:"-"`
}

type Session struct {
	Code   string `json:"code"`
	Status Status `json:"status"`

	// Membership
	Players   map[string]*Player `json:"-"`
	ThinkerID string             `json:"thinker_id"`
	joinSeq   int

	// Round state
	Round             int            `json:"round"`
	SecretWord        string         `json:"-"`
	Questions         []Question     `json:"questions"`
	Guesses           []Guess        `json:"guesses"`
	NextQuestionID    int            `json:"-"`
	PendingQuestionID int            `json:"pending_question_id"`
	AskedCount        int            `json:"asked_count"`
	MaxQuestions      int            `json:"max_questions"`
	GuessAttempts     map[string]int `json:"guess_attempts,omitempty"`

	// Turn order
	TurnOrder []string `json:"turn_order"`
	TurnIndex int      `json:"turn_index"`
	HoldIndex bool     `json:"-"`

	// Timer
	TimerSeq uint64     `json:"-"`
	Timer    *TurnTimer `json:"timer,omitempty"`

	// History replayed to late joiners
	Logs []LogEntry  `json:"-"`
	Chat []ChatEntry `json:"-"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"-"`
	Closed     bool      `json:"-"`

	// One mutator at a time per room
	Mu sync.Mutex `json:"-"`
}

type RoomSummary struct {
	Code        string `json:"code"`
	PlayerCount int    `json:"player_count"`
	Status      Status `json:"status"`
}

// RoundResult is the transcript of a finished round.
type RoundResult struct {
	Code       string     `json:"code"`
	Round      int        `json:"round"`
	Message    string     `json:"message"`
	Secret     string     `json:"secret"`
	Questions  []Question `json:"questions"`
	Guesses    []Guess    `json:"guesses"`
	WinnerID   *string    `json:"winner_id"`
	WinnerName string     `json:"winner_name,omitempty"`
	AskedCount int        `json:"asked_count"`
	EndedAt    time.Time  `json:"ended_at"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
