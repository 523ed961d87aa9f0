package ws

import (
	"encoding/json"
	"errors"
	"time"

	"talkio_backend/internal/models"
	"talkio_backend/internal/validator"
	"talkio_backend/pkg/apperrors"
)

// Inbound event types.
const (
	EventAuth            = "auth"
	EventChatMessage     = "chatMessage"
	EventMessageReaction = "messageReaction"
	EventEditMessage     = "editMessage"
	EventDeleteMessage   = "deleteMessage"
)

// Outbound event types.
const (
	EventAuthSuccess            = "authSuccess"
	EventAuthError              = "authError"
	EventUserStatus             = "userStatus"
	EventNewMessage             = "newMessage"
	EventMessageSent            = "messageSent"
	EventNewReaction            = "newReaction"
	EventReactionSent           = "reactionSent"
	EventMessageEdited          = "messageEdited"
	EventMessageEditConfirmed   = "messageEditConfirmed"
	EventMessageDeleted         = "messageDeleted"
	EventMessageDeleteConfirmed = "messageDeleteConfirmed"
	EventError                  = "error"
)

// Envelope is one frame on the wire, in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outbound struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundEvent is one of the typed payloads below. Relays only ever see
// decoded and validated values.
type InboundEvent interface {
	EventType() string
}

type AuthEvent struct {
	UserID uint   `json:"userId"`
	Token  string `json:"token"`
}

type ChatMessageEvent struct {
	ReceiverID uint               `json:"receiverId" validate:"required,gt=0"`
	Content    string             `json:"content" validate:"required"`
	Type       models.MessageType `json:"type" validate:"omitempty,is-message-type"`
}

type MessageReactionEvent struct {
	MessageID uint   `json:"messageId" validate:"required,gt=0"`
	Reaction  string `json:"reaction" validate:"required,is-reaction"`
}

type EditMessageEvent struct {
	MessageID uint   `json:"messageId" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required"`
}

type DeleteMessageEvent struct {
	MessageID uint `json:"messageId" validate:"required,gt=0"`
}

func (*AuthEvent) EventType() string            { return EventAuth }
func (*ChatMessageEvent) EventType() string     { return EventChatMessage }
func (*MessageReactionEvent) EventType() string { return EventMessageReaction }
func (*EditMessageEvent) EventType() string     { return EventEditMessage }
func (*DeleteMessageEvent) EventType() string   { return EventDeleteMessage }

// Outbound payloads.

type AuthSuccessPayload struct {
	UserID   uint   `json:"userId"`
	UniqueID string `json:"uniqueId"`
}

type UserStatusPayload struct {
	UserID   uint                  `json:"userId"`
	UniqueID string                `json:"uniqueId"`
	Status   models.PresenceStatus `json:"status"`
}

type NewMessagePayload struct {
	Message *models.Message   `json:"message"`
	Sender  models.PublicUser `json:"sender"`
}

type MessageEditedPayload struct {
	MessageID uint                     `json:"messageId"`
	Content   string                   `json:"content"`
	EditedAt  *time.Time               `json:"editedAt"`
	Message   *models.Message          `json:"message"`
	Reactions []models.MessageReaction `json:"reactions"`
}

type MessageDeletedPayload struct {
	MessageID uint      `json:"messageId"`
	DeletedAt time.Time `json:"deletedAt"`
}

// ErrorPayload always carries message. Error holds the underlying cause of
// storage failures.
type ErrorPayload struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func decodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.ErrMalformedEvent.WithError(err)
	}
	if env.Type == "" {
		return nil, apperrors.ErrMalformedEvent.WithDetails("missing type")
	}
	return &env, nil
}

// decodeEvent turns an envelope into its typed payload and validates it.
func decodeEvent(env *Envelope, v *validator.Validator) (InboundEvent, error) {
	var ev InboundEvent
	switch env.Type {
	case EventAuth:
		ev = &AuthEvent{}
	case EventChatMessage:
		ev = &ChatMessageEvent{}
	case EventMessageReaction:
		ev = &MessageReactionEvent{}
	case EventEditMessage:
		ev = &EditMessageEvent{}
	case EventDeleteMessage:
		ev = &DeleteMessageEvent{}
	default:
		return nil, apperrors.ErrUnknownEvent.WithDetails(env.Type)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, apperrors.ErrMalformedEvent.WithDetails("missing data")
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, apperrors.ErrMalformedEvent.WithError(err)
	}

	if err := v.Validate(ev); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return nil, apperrors.ValidationError(verr.Errors)
		}
		return nil, apperrors.ErrMalformedEvent.WithError(err)
	}
	return ev, nil
}

func encode(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(outbound{Type: eventType, Data: data})
}

// errorPayload renders any error the relays return.
func errorPayload(err error) ErrorPayload {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.InternalError(err)
	}
	p := ErrorPayload{
		Message: appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}
	if appErr.Code == apperrors.CodeStorageError {
		p.Error = appErr.Detail()
	}
	return p
}
