package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/vovakirdan/dmrelay/internal/core"
	"github.com/vovakirdan/dmrelay/internal/proto"
)

var errUnknownEvent = errors.New("unknown event")

func inboundToCommand(inbound proto.Inbound) (core.Command, error) {
	switch inbound.Event {
	case proto.EventPrivateMessage:
		var msg proto.PrivateMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return core.Command{}, err
		}
		return core.Command{
			Kind:        core.CommandSendMessage,
			RecipientID: msg.RecipientID,
			Text:        msg.Text,
			ClientID:    msg.ClientID,
		}, nil
	case proto.EventTyping, proto.EventStopTyping:
		var typing proto.TypingData
		if err := json.Unmarshal(inbound.Data, &typing); err != nil {
			return core.Command{}, err
		}
		kind := core.CommandTypingStart
		if inbound.Event == proto.EventStopTyping {
			kind = core.CommandTypingStop
		}
		return core.Command{Kind: kind, RecipientID: typing.RecipientID}, nil
	default:
		return core.Command{}, fmt.Errorf("%w %q", errUnknownEvent, inbound.Event)
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventPrivateMessage:
		return proto.Outbound{Event: proto.EventPrivateMessage, Data: toProtoMessage(event.Message)}
	case core.EventHistory:
		return proto.Outbound{
			Event: proto.EventChatHistory,
			Data: lo.Map(event.Messages, func(m core.Message, _ int) proto.Message {
				return toProtoMessage(m)
			}),
		}
	case core.EventTyping:
		return proto.Outbound{Event: proto.EventTyping, Data: proto.TypingEvent{SenderID: event.SenderID}}
	case core.EventStopTyping:
		return proto.Outbound{Event: proto.EventStopTyping, Data: proto.TypingEvent{SenderID: event.SenderID}}
	case core.EventUserStatus:
		return proto.Outbound{
			Event: proto.EventUserStatus,
			Data:  proto.UserStatusEvent{UserID: event.UserID, Status: string(event.Status)},
		}
	default:
		return proto.Outbound{Event: event.Kind.String()}
	}
}

func toProtoMessage(m core.Message) proto.Message {
	return proto.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		SenderEmail: m.SenderEmail,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
		ClientID:    m.ClientID,
	}
}
