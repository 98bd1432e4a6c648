package realtime

import (
	"encoding/json"
	"time"
)

// Inbound event names.
const (
	EventAuthenticate     = "authenticate"
	EventJoinChannel      = "joinChannel"
	EventLeaveChannel     = "leaveChannel"
	EventSendMessage      = "sendMessage"
	EventTyping           = "typing"
	EventReadNotification = "readNotification"
	EventDirectMessage    = "directMessage"
	EventUpdateStatus     = "updateStatus"
)

// Outbound event names.
const (
	EventConnectionSuccess   = "connectionSuccess"
	EventAuthenticationError = "authenticationError"
	EventMessageReceived     = "messageReceived"
	EventTypingChanged       = "typingChanged"
	EventUserStatusChange    = "userStatusChange"
)

// Envelope is the wire frame for every socket event; Data's shape is fixed
// by the event name, dispatch never sniffs payloads.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func marshalEvent(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Inbound payloads.
type (
	AuthenticatePayload struct {
		Token string `json:"token"`
	}

	ChannelPayload struct {
		ChannelID string `json:"channel_id"`
	}

	SendMessagePayload struct {
		Content   string `json:"content"`
		ChannelID string `json:"channel_id"`
		ClientKey string `json:"client_key,omitempty"`
	}

	TypingPayload struct {
		ChannelID string `json:"channel_id"`
		IsTyping  bool   `json:"is_typing"`
	}

	ReadNotificationPayload struct {
		NotificationID string `json:"notification_id"`
	}

	DirectMessagePayload struct {
		RecipientID string `json:"recipient_id"`
		Content     string `json:"content"`
		ClientKey   string `json:"client_key,omitempty"`
	}

	UpdateStatusPayload struct {
		Status string `json:"status"`
	}
)

// Outbound payloads.
type (
	ConnectionSuccessPayload struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}

	ErrorPayload struct {
		Message string `json:"message"`
	}

	MessageReceivedPayload struct {
		MessageID string    `json:"message_id"`
		SenderID  string    `json:"sender_id"`
		Content   string    `json:"content"`
		ChannelID string    `json:"channel_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	TypingChangedPayload struct {
		UserID    string `json:"user_id"`
		ChannelID string `json:"channel_id"`
		IsTyping  bool   `json:"is_typing"`
	}

	DirectMessageReceivedPayload struct {
		MessageID string    `json:"message_id"`
		SenderID  string    `json:"sender_id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}

	UserStatusChangePayload struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
)
