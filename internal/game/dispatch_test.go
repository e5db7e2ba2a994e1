package game

import (
	"encoding/json"
	"testing"

	"github.com/scythe504/guessword-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, typ string, data any) internal.Message[json.RawMessage] {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return internal.Message[json.RawMessage]{Type: typ, Data: raw}
}

func lastError(t *testing.T, out *recorder, connID string) internal.SystemErrorData {
	t.Helper()
	errs := out.directEvents(connID, internal.EventSystemError)
	require.NotEmpty(t, errs, "expected a system:error for %s", connID)
	return errs[len(errs)-1].(internal.SystemErrorData)
}

func TestConnectSendsWelcomeAndLobby(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Create("alice", "ABCD", "Alice"))

	f.reg.Connect("bob")

	assert.Equal(t, []any{internal.WelcomeData{ConnID: "bob"}}, f.out.directEvents("bob", internal.EventWelcome))
	lobby := f.out.directEvents("bob", internal.EventRoomsUpdate)
	require.Len(t, lobby, 1)
	assert.Len(t, lobby[0].(internal.RoomsUpdateData).Rooms, 1)
}

func TestDispatchRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.reg.Dispatch("alice", message(t, internal.EventRoomCreate, internal.RoomRequest{Code: "ABCD", Name: "Alice"}))
	f.reg.Dispatch("bob", message(t, internal.EventRoomJoin, internal.RoomRequest{Code: "ABCD", Name: "Bob"}))
	f.reg.Dispatch("alice", message(t, internal.EventRoundStart, internal.StartRoundRequest{Code: "ABCD", SecretWord: "gatto"}))
	f.reg.Dispatch("bob", message(t, internal.EventQuestionAsk, internal.AskRequest{Code: "ABCD", Text: "È un animale?"}))
	f.reg.Dispatch("alice", message(t, internal.EventQuestionAnswer, internal.AnswerRequest{Code: "ABCD", ID: 1, Answer: "Sì"}))
	f.reg.Dispatch("bob", message(t, internal.EventGuessSubmit, internal.GuessRequest{Code: "ABCD", Text: "gatto"}))

	assert.Empty(t, f.out.directEvents("alice", internal.EventSystemError))
	assert.Empty(t, f.out.directEvents("bob", internal.EventSystemError))

	ended := f.out.roomEvents("ABCD", internal.EventRoundEnded)
	require.Len(t, ended, 1)
	result := ended[0].(internal.RoundResult)
	require.NotNil(t, result.WinnerID)
	assert.Equal(t, "bob", *result.WinnerID)
	assert.Equal(t, 1, result.AskedCount)
}

func TestDispatchReportsErrors(t *testing.T) {
	f := newFixture(t)
	f.reg.Dispatch("alice", message(t, internal.EventRoomCreate, internal.RoomRequest{Code: "ABCD", Name: "Alice"}))

	f.reg.Dispatch("mallory", message(t, internal.EventRoomCreate, internal.RoomRequest{Code: "ABCD"}))
	assert.Equal(t, "DuplicateCode", lastError(t, f.out, "mallory").Code)

	f.reg.Dispatch("bob", message(t, internal.EventRoomJoin, internal.RoomRequest{Code: "ZZZZ"}))
	assert.Equal(t, "RoomNotFound", lastError(t, f.out, "bob").Code)

	f.reg.Dispatch("bob", message(t, internal.EventRoomJoin, internal.RoomRequest{Code: "ABCD", Name: "Bob"}))
	f.reg.Dispatch("bob", message(t, internal.EventRoundStart, internal.StartRoundRequest{Code: "ABCD", SecretWord: "cane"}))
	assert.Equal(t, "Forbidden", lastError(t, f.out, "bob").Code)

	f.reg.Dispatch("alice", message(t, internal.EventRoundStart, internal.StartRoundRequest{Code: "ABCD"}))
	assert.Equal(t, "EmptySecret", lastError(t, f.out, "alice").Code)

	f.reg.Dispatch("bob", internal.Message[json.RawMessage]{Type: "pixel_draw"})
	assert.Equal(t, "BadRequest", lastError(t, f.out, "bob").Code)

	f.reg.Dispatch("bob", internal.Message[json.RawMessage]{Type: internal.EventQuestionAsk, Data: json.RawMessage(`{"code":`)})
	assert.Equal(t, "BadRequest", lastError(t, f.out, "bob").Code)

	// leaving a room you are not in is not reported
	before := len(f.out.directEvents("carol", internal.EventSystemError))
	f.reg.Dispatch("carol", message(t, internal.EventRoomLeave, internal.RoomRequest{Code: "ABCD"}))
	assert.Len(t, f.out.directEvents("carol", internal.EventSystemError), before)

	// neither are stale answers
	f.reg.Dispatch("alice", message(t, internal.EventQuestionAnswer, internal.AnswerRequest{Code: "ABCD", ID: 7, Answer: "Sì"}))
	assert.Len(t, f.out.directEvents("alice", internal.EventSystemError), 1)
}

func TestDispatchTrimsRoomCode(t *testing.T) {
	f := newFixture(t)

	f.reg.Dispatch("alice", message(t, internal.EventRoomCreate, internal.RoomRequest{Code: " ABCD ", Name: "Alice"}))
	f.reg.Dispatch("bob", message(t, internal.EventRoomJoin, internal.RoomRequest{Code: "ABCD ", Name: "Bob"}))
	f.reg.Dispatch("alice", message(t, internal.EventRoundStart, internal.StartRoundRequest{Code: " ABCD", SecretWord: "gatto"}))
	f.reg.Dispatch("bob", message(t, internal.EventQuestionAsk, internal.AskRequest{Code: "\tABCD", Text: "Miagola?"}))
	f.reg.Dispatch("alice", message(t, internal.EventQuestionAnswer, internal.AnswerRequest{Code: "ABCD\n", ID: 1, Answer: "Sì"}))
	f.reg.Dispatch("bob", message(t, internal.EventChatMessage, internal.ChatRequest{Code: " ABCD", Text: "ci sono"}))

	assert.Empty(t, f.out.directEvents("alice", internal.EventSystemError))
	assert.Empty(t, f.out.directEvents("bob", internal.EventSystemError))

	s := f.session(t, "ABCD")
	assert.Equal(t, 1, s.AskedCount)
	require.Len(t, s.Questions, 1)
	assert.True(t, s.Questions[0].Answered())
	assert.Len(t, f.out.roomEvents("ABCD", internal.EventChatMessage), 1)

	f.reg.Dispatch("bob", message(t, internal.EventRoomLeave, internal.RoomRequest{Code: " ABCD "}))
	assert.NotContains(t, s.Players, "bob")
}

func TestChatIsRelayedAndReplayed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Create("alice", "ABCD", "Alice"))

	f.reg.Dispatch("alice", message(t, internal.EventChatMessage, internal.ChatRequest{Code: "ABCD", Text: "ciao"}))
	// not a member
	f.reg.Dispatch("eve", message(t, internal.EventChatMessage, internal.ChatRequest{Code: "ABCD", Name: "Eve", Text: "spam"}))

	chat := f.out.roomEvents("ABCD", internal.EventChatMessage)
	require.Len(t, chat, 1)
	entry := chat[0].(internal.ChatEntry)
	assert.Equal(t, "Alice", entry.Name)
	assert.Equal(t, "ciao", entry.Text)

	require.NoError(t, f.reg.Join("bob", "ABCD", "Bob"))
	history := f.out.directEvents("bob", internal.EventRoomHistory)
	require.Len(t, history, 1)
	assert.Equal(t, []internal.ChatEntry{entry}, history[0].(internal.RoomHistoryData).Chat)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "NotYourTurn", ErrorCode(ErrNotYourTurn))
	assert.Equal(t, "QuestionLimitReached", ErrorCode(ErrQuestionLimitReached))
	assert.Equal(t, "InvalidCode", ErrorCode(ErrInvalidCode))
	assert.Equal(t, "InternalError", ErrorCode(assert.AnError))
}
