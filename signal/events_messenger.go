package signal

import "encoding/json"

const (
	// MessageDelivered triggered when we got acknowledge from datasync level, that means peer got message
	MessageDelivered = SignalType("message.delivered")

	// MessagesNew is triggered when we receive new messages
	MessagesNew = SignalType("messages.new")

	// CommunityInfoFound triggered when user requested info about some community and messenger successfully
	// retrieved it from mailserver
	CommunityInfoFound = SignalType("community.found")
)

// MessageDeliveredEvent specifies chat and message that was delivered
type MessageDeliveredEvent struct {
	ChatID    string `json:"chatID"`
	MessageID string `json:"messageID"`
}

func (*MessageDeliveredEvent) signalEvent() {}

type CommunityInfoFoundEvent struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	MembersCount int    `json:"membersCount"`
	Verified     bool   `json:"verified"`
}

func (*CommunityInfoFoundEvent) signalEvent() {}

// Message is the subset of a chat message the harness inspects.
type Message struct {
	ID          string `json:"id"`
	ChatID      string `json:"chatId"`
	LocalChatID string `json:"localChatId"`
	From        string `json:"from"`
	Text        string `json:"text"`
	ContentType int    `json:"contentType"`
	ResponseTo  string `json:"responseTo"`
}

// MessagesNewEvent is the messenger response pushed with `messages.new`.
type MessagesNewEvent struct {
	Messages                    []Message         `json:"messages"`
	Chats                       []json.RawMessage `json:"chats"`
	Contacts                    []json.RawMessage `json:"contacts"`
	Communities                 []json.RawMessage `json:"communities"`
	ActivityCenterNotifications []json.RawMessage `json:"activityCenterNotifications"`
}

func (*MessagesNewEvent) signalEvent() {}

// MessageByID returns the message with the given id, if present.
func (e *MessagesNewEvent) MessageByID(id string) (Message, bool) {
	for _, m := range e.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Chat message content types the harness looks for.
const (
	ContentTypeTextPlain                        = 1
	ContentTypeContactRequest                   = 11
	ContentTypeSystemMessageMutualEventSent     = 15
	ContentTypeSystemMessageMutualEventAccepted = 16
)

// FirstByContentType returns the first message of the given content type.
func (e *MessagesNewEvent) FirstByContentType(contentType int) (Message, bool) {
	for _, m := range e.Messages {
		if m.ContentType == contentType {
			return m, true
		}
	}
	return Message{}, false
}
