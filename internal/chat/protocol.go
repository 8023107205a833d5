package chat

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Envelope type discriminators.
const (
	TypeJoinRoom   = "join_room"
	TypeRoomJoined = "room_joined"
	TypeChat       = "chat"
	TypeError      = "error"
)

// InvalidFormatText is the only error text ever sent to a client.
const InvalidFormatText = "Invalid message format"

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownType    = errors.New("unknown message type")
	ErrIncompleteJoin = errors.New("join_room without room")
	ErrIncompleteChat = errors.New("incomplete chat payload")
)

var validate = validator.New()

// Inbound is a frame a client may send. JoinRoom and SendChat are the only implementations.
type Inbound interface {
	inbound()
}

type JoinRoom struct {
	Room string
}

type SendChat struct {
	Room     string `validate:"required"`
	Username string `validate:"required"`
	Message  string `validate:"required"`
}

func (JoinRoom) inbound() {}
func (SendChat) inbound() {}

// Outbound is a frame the relay may send. RoomJoined, ChatBroadcast and ErrorFrame
// are the only implementations.
type Outbound interface {
	outbound()
}

type RoomJoined struct {
	Room string `json:"room"`
}

type ChatBroadcast struct {
	Data ChatMessage `json:"data"`
}

type ErrorFrame struct {
	Message string `json:"message"`
}

func (RoomJoined) outbound()    {}
func (ChatBroadcast) outbound() {}
func (ErrorFrame) outbound()    {}

// rawFrame is the flat client shape: {"type": ..., "room": ..., "username": ..., "message": ...}.
type rawFrame struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// DecodeInbound parses one client frame into the closed Inbound set.
func DecodeInbound(data []byte) (Inbound, error) {
	var frame rawFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch frame.Type {
	case TypeJoinRoom:
		if frame.Room == "" {
			return nil, ErrIncompleteJoin
		}
		return JoinRoom{Room: frame.Room}, nil
	case TypeChat:
		msg := SendChat{Room: frame.Room, Username: frame.Username, Message: frame.Message}
		if err := validate.Struct(msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompleteChat, err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, frame.Type)
	}
}

// Encode serializes an outbound frame with its type discriminator first.
func Encode(frame Outbound) ([]byte, error) {
	switch f := frame.(type) {
	case RoomJoined:
		return json.Marshal(struct {
			Type string `json:"type"`
			RoomJoined
		}{TypeRoomJoined, f})
	case ChatBroadcast:
		return json.Marshal(struct {
			Type string `json:"type"`
			ChatBroadcast
		}{TypeChat, f})
	case ErrorFrame:
		return json.Marshal(struct {
			Type string `json:"type"`
			ErrorFrame
		}{TypeError, f})
	default:
		return nil, fmt.Errorf("unsupported outbound frame %T", frame)
	}
}
