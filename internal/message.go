package internal

import "time"

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound event types
const (
	EventRoomCreate     = "room:create"
	EventRoomJoin       = "room:join"
	EventRoomLeave      = "room:leave"
	EventRoundStart     = "round:start"
	EventRoundSuggest   = "round:suggest"
	EventQuestionAsk    = "question:ask"
	EventQuestionAnswer = "question:answer"
	EventGuessSubmit    = "guess:submit"
	EventChatMessage    = "chat:message"
)

// Outbound event types
const (
	EventWelcome          = "welcome"
	EventRoomState        = "room:state"
	EventRoomsUpdate      = "rooms:update"
	EventRoomHistory      = "room:history"
	EventRoomClosed       = "room:closed"
	EventRoomKicked       = "room:kicked"
	EventRoundStarted     = "round:started"
	EventRoundSecret      = "round:secret"
	EventRoundSuggestions = "round:suggestions"
	EventRoundGuessing    = "round:guessing"
	EventRoundEnded       = "round:ended"
	EventTurnNow          = "turn:now"
	EventQuestionNew      = "question:new"
	EventQuestionUpdate   = "question:update"
	EventCounterUpdate    = "counter:update"
	EventGuessNew         = "guess:new"
	EventTimerStart       = "timer:start"
	EventLogMessage       = "log:message"
	EventSystemError      = "system:error"
)

// Codes carried by system:error
const (
	ErrCodeDuplicateCode        = "DuplicateCode"
	ErrCodeRoomNotFound         = "RoomNotFound"
	ErrCodeForbidden            = "Forbidden"
	ErrCodeEmptySecret          = "EmptySecret"
	ErrCodeNotYourTurn          = "NotYourTurn"
	ErrCodeQuestionLimitReached = "QuestionLimitReached"
	ErrCodeInvalidCode          = "InvalidCode"
	ErrCodeBadRequest           = "BadRequest"
	ErrCodeInternal             = "InternalError"
)

// =============================================================================
// INBOUND PAYLOADS
// =============================================================================

type RoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type StartRoundRequest struct {
	Code       string `json:"code"`
	SecretWord string `json:"secret_word"`
}

type AskRequest struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type AnswerRequest struct {
	Code   string `json:"code"`
	ID     int    `json:"id"`
	Answer string `json:"answer"`
}

type GuessRequest struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type ChatRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// =============================================================================
// OUTBOUND PAYLOADS
// =============================================================================

type WelcomeData struct {
	ConnID string `json:"conn_id"`
}

type RoomStateData struct {
	Code         string           `json:"code"`
	Status       Status           `json:"status"`
	Round        int              `json:"round"`
	ThinkerID    string           `json:"thinker_id"`
	Players      []PlayerSnapshot `json:"players"`
	TurnOrder    []string         `json:"turn_order"`
	CurrentTurn  string           `json:"current_turn,omitempty"`
	AskedCount   int              `json:"asked_count"`
	MaxQuestions int              `json:"max_questions"`
}

type RoomsUpdateData struct {
	Rooms []RoomSummary `json:"rooms"`
}

type RoomHistoryData struct {
	Code string      `json:"code"`
	You  string      `json:"you"`
	Logs []LogEntry  `json:"logs"`
	Chat []ChatEntry `json:"chat"`
}

type RoomClosedData struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type RoundStartedData struct {
	Round        int              `json:"round"`
	MaxQuestions int              `json:"max_questions"`
	ThinkerID    string           `json:"thinker_id"`
	Players      []PlayerSnapshot `json:"players"`
}

type RoundSecretData struct {
	Secret string `json:"secret"`
}

type RoundSuggestionsData struct {
	Words []string `json:"words"`
}

type RoundGuessingData struct {
	Attempts map[string]int `json:"attempts"`
}

type TurnNowData struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type CounterData struct {
	Asked int `json:"asked"`
	Max   int `json:"max"`
}

type TimerStartData struct {
	Kind       TimerKind `json:"kind"`
	DurationMs int64     `json:"duration_ms"`
	Deadline   time.Time `json:"deadline"`
}

type SystemErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
