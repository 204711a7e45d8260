package core

import "strconv"

// Handler is the capability every event target implements
type Handler interface {
	OnEvent(kind uint8, value uint16)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(kind uint8, value uint16)

// OnEvent calls f(kind, value)
func (f HandlerFunc) OnEvent(kind uint8, value uint16) {
	f(kind, value)
}

// Event is a queued notification for a target. The payload is a 16 bit
// value only; data that does not fit travels with the target.
type Event struct {
	Kind   uint8
	Target Handler
	Value  uint16
}

// Event kinds
const (
	NullType uint8 = iota
	FallingType
	RisingType
	ChangeType
	SampleRequestType
	SampleCompletedType
	WatchdogType
	TimeoutType
	BeginType
	EndType
	RunType
	ConnectType
	DisconnectType
	ReceiveRequestType
	ReceiveCompletedType
	SendRequestType
	SendCompletedType
	OpenType
	CloseType
	ReadType
	WriteType
	CommandType
	ServiceRequestType
	ServiceResponseType

	// UserType is the first kind available to applications
	UserType uint8 = 64
)

var kindNames = [...]string{
	NullType:             "null",
	FallingType:          "falling",
	RisingType:           "rising",
	ChangeType:           "change",
	SampleRequestType:    "sample_request",
	SampleCompletedType:  "sample_completed",
	WatchdogType:         "watchdog",
	TimeoutType:          "timeout",
	BeginType:            "begin",
	EndType:              "end",
	RunType:              "run",
	ConnectType:          "connect",
	DisconnectType:       "disconnect",
	ReceiveRequestType:   "receive_request",
	ReceiveCompletedType: "receive_completed",
	SendRequestType:      "send_request",
	SendCompletedType:    "send_completed",
	OpenType:             "open",
	CloseType:            "close",
	ReadType:             "read",
	WriteType:            "write",
	CommandType:          "command",
	ServiceRequestType:   "service_request",
	ServiceResponseType:  "service_response",
}

// KindName returns a diagnostic name for an event kind
func KindName(kind uint8) string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	if kind >= UserType {
		return "user+" + strconv.Itoa(int(kind-UserType))
	}
	return "reserved"
}
