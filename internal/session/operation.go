package session

import "fmt"

// OperationStatus tags an OperationState.
type OperationStatus int

const (
	StatusIdle OperationStatus = iota
	StatusSuccess
	StatusError
)

func (s OperationStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// OperationState is the outcome of the most recently completed entry
// operation. It is not necessarily the outcome of the most recently issued
// one.
type OperationState struct {
	Status OperationStatus `json:"status"`
	// Message describes the failure when Status is StatusError.
	Message string `json:"message,omitempty"`
	// ID is the entry the operation touched, when known.
	ID int64 `json:"id,omitempty"`
}

// Idle is the state before any operation completes.
var Idle = OperationState{}

// Success returns the state of an operation that completed on entry id.
func Success(id int64) OperationState {
	return OperationState{Status: StatusSuccess, ID: id}
}

// Failed returns the state of an operation that failed with msg.
func Failed(msg string) OperationState {
	return OperationState{Status: StatusError, Message: msg}
}

func (s OperationState) String() string {
	switch s.Status {
	case StatusError:
		return "error: " + s.Message
	case StatusSuccess:
		if s.ID != 0 {
			return fmt.Sprintf("success (entry %d)", s.ID)
		}
		return "success"
	default:
		return s.Status.String()
	}
}
