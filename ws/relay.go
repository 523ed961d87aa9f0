package ws

import (
	"context"

	"talkio_backend/internal/models"
)

func (h *Hub) relayMessage(ctx context.Context, c *Client, e *ChatMessageEvent) error {
	senderID, _, _ := c.Identity()
	msgType := e.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	sent, err := h.messages.Send(ctx, senderID, e.ReceiverID, e.Content, msgType)
	if err != nil {
		return err
	}

	h.deliverEvent(EventNewMessage, e.ReceiverID, NewMessagePayload{Message: sent.Message, Sender: sent.Sender})
	c.pushEvent(EventMessageSent, sent.Message)
	return nil
}

func (h *Hub) relayReaction(ctx context.Context, c *Client, e *MessageReactionEvent) error {
	userID, _, _ := c.Identity()

	res, err := h.reactions.React(ctx, userID, e.MessageID, e.Reaction)
	if err != nil {
		return err
	}

	if res.CounterpartID != 0 && res.CounterpartID != userID {
		h.deliverEvent(EventNewReaction, res.CounterpartID, res.Reaction)
	}
	c.pushEvent(EventReactionSent, res.Reaction)
	return nil
}

func (h *Hub) relayEdit(ctx context.Context, c *Client, e *EditMessageEvent) error {
	userID, _, _ := c.Identity()

	res, err := h.mutations.Edit(ctx, userID, e.MessageID, e.Content)
	if err != nil {
		return err
	}

	payload := MessageEditedPayload{
		MessageID: res.Message.ID,
		Content:   res.Message.Content,
		EditedAt:  res.Message.EditedAt,
		Message:   res.Message,
		Reactions: res.Reactions,
	}
	if res.CounterpartID != 0 && res.CounterpartID != userID {
		h.deliverEvent(EventMessageEdited, res.CounterpartID, payload)
	}
	c.pushEvent(EventMessageEditConfirmed, payload)
	return nil
}

func (h *Hub) relayDelete(ctx context.Context, c *Client, e *DeleteMessageEvent) error {
	userID, _, _ := c.Identity()

	res, err := h.mutations.Delete(ctx, userID, e.MessageID)
	if err != nil {
		return err
	}

	payload := MessageDeletedPayload{MessageID: res.MessageID, DeletedAt: res.DeletedAt}
	if res.CounterpartID != 0 && res.CounterpartID != userID {
		h.deliverEvent(EventMessageDeleted, res.CounterpartID, payload)
	}
	c.pushEvent(EventMessageDeleteConfirmed, payload)
	return nil
}

func (h *Hub) deliverEvent(eventType string, userID uint, data interface{}) {
	frame, err := encode(eventType, data)
	if err != nil {
		h.log.Error("failed to encode event", "event", eventType, "error", err)
		return
	}
	h.deliver(eventType, userID, frame)
}

// deliver pushes to the user's registered connection if there is one. The
// push happens after the registry lock is released.
func (h *Hub) deliver(eventType string, userID uint, frame []byte) bool {
	c, ok := h.registry.Lookup(userID)
	if !ok || !c.IsAlive() {
		h.metrics.Delivery(eventType, "offline")
		return false
	}
	if !c.Push(frame) {
		h.metrics.Delivery(eventType, "dropped")
		return false
	}
	h.metrics.Delivery(eventType, "delivered")
	return true
}
