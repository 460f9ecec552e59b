package game

// ProtocolError is an error surfaced to a single actor, never broadcast.
// The code is stable for clients and tests; the message is the
// human-readable string shown in the UI.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Code + ": " + e.Message
}

const (
	CodeRoomNotFound = "room_not_found"
	CodeRoomFull     = "room_full"
	CodeNotYourTurn  = "not_your_turn"
	CodeBadInput     = "bad_input"
	CodeBadJSON      = "bad_json"
	CodeUnknownType  = "unknown_type"
)

func errRoomNotFound() *ProtocolError {
	return &ProtocolError{Code: CodeRoomNotFound, Message: "Sala no encontrada. Verifica el código."}
}

func errRoomFull() *ProtocolError {
	return &ProtocolError{Code: CodeRoomFull, Message: "La sala está llena"}
}

func errNotYourTurn() *ProtocolError {
	return &ProtocolError{Code: CodeNotYourTurn, Message: "No es tu turno"}
}

func errBadInput(msg string) *ProtocolError {
	return &ProtocolError{Code: CodeBadInput, Message: msg}
}
