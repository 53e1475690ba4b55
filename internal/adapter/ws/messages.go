package ws

import (
	"civico/internal/app/playerstate"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

type MessageType string

const (
	TypeCreateAccount   MessageType = "CREATE_ACCOUNT"
	TypeLogin           MessageType = "LOGIN"
	TypeLogout          MessageType = "LOGOUT"
	TypeToken           MessageType = "TOKEN"
	TypeGetData         MessageType = "GET_DATA"
	TypeSendData        MessageType = "SEND_DATA"
	TypeFieldLevelUp    MessageType = "FIELD_LEVELUP"
	TypeDispatch        MessageType = "DISPATCH"
	TypeDisablePacifism MessageType = "DISABLE_PACIFISM"
	TypeError           MessageType = "ERROR"
)

// Inbound is any client message. Only the fields of its type are set.
type Inbound struct {
	Type     MessageType       `json:"type"`
	Token    string            `json:"token,omitempty"`
	Username string            `json:"username,omitempty"`
	Password string            `json:"password,omitempty"`
	Row      int               `json:"row,omitempty"`
	Column   int               `json:"column,omitempty"`
	NewLevel int               `json:"newLevel,omitempty"`
	Target   worldmap.Point    `json:"target,omitempty"`
	Troops   settlement.Troops `json:"troops,omitempty"`
}

type TokenMessage struct {
	Type     MessageType `json:"type"`
	Token    string      `json:"token"`
	Username string      `json:"username"`
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// SendDataMessage flattens the settlement view into the message body.
type SendDataMessage struct {
	Type MessageType `json:"type"`
	playerstate.View
	Map       []int `json:"map"`
	Timestamp int64 `json:"timestamp"`
}

func newSendData(v playerstate.View, nowMillis int64) SendDataMessage {
	return SendDataMessage{
		Type:      TypeSendData,
		View:      v,
		Map:       []int{v.MapCoordinates.X, v.MapCoordinates.Y},
		Timestamp: nowMillis,
	}
}

func newError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}
