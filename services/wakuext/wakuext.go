// Package wakuext wraps the messenger API of status-backend.
package wakuext

import (
	"context"

	"github.com/status-im/status-backend-tests/rpc"
	"github.com/status-im/status-backend-tests/services"
)

const (
	namespace = "wakuext"

	codeMessengerStarted    = -32000
	messageMessengerStarted = "messenger already started"

	// ContentTypeTextPlain is the content type of plain text chat messages.
	ContentTypeTextPlain = 1

	defaultCommunityColor = "#ffffff"
	// MembershipOpen lets anyone join a community.
	MembershipOpen = 3
)

// ChatMessage is a message sent with SendChatMessages.
type ChatMessage struct {
	ChatID      string `json:"chatId"`
	Text        string `json:"text"`
	ContentType int    `json:"contentType"`
}

// PinMessage pins or unpins a message.
type PinMessage struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Pinned    bool   `json:"pinned"`
}

type Service struct {
	services.Service
}

func New(client services.Caller) *Service {
	return &Service{Service: services.New(client, namespace)}
}

// StartMessenger starts the messenger. A messenger that is already running is
// not an error.
func (s *Service) StartMessenger(ctx context.Context) (*rpc.Response, error) {
	resp, err := s.CallUnchecked(ctx, "startMessenger")
	if err != nil {
		return nil, err
	}
	if rpcErr := resp.RPCError(); rpcErr != nil {
		if rpcErr.Code == codeMessengerStarted && rpcErr.Message == messageMessengerStarted {
			return resp, nil
		}
	}
	return resp, resp.Validate()
}

// Peers returns the connected waku peers keyed by peer id.
func (s *Service) Peers(ctx context.Context) (map[string]interface{}, error) {
	var peers map[string]interface{}
	err := s.CallResult(ctx, &peers, "peers")
	return peers, err
}

func (s *Service) SetLightClient(ctx context.Context, enabled bool) (*rpc.Response, error) {
	return s.Call(ctx, "setLightClient", map[string]bool{"enabled": enabled})
}

func (s *Service) SendContactRequest(ctx context.Context, contactID, message string) (*rpc.Response, error) {
	return s.Call(ctx, "sendContactRequest", map[string]string{"id": contactID, "message": message})
}

func (s *Service) AcceptContactRequest(ctx context.Context, requestID string) (*rpc.Response, error) {
	return s.Call(ctx, "acceptContactRequest", map[string]string{"id": requestID})
}

func (s *Service) AcceptLatestContactRequestForContact(ctx context.Context, contactID string) (*rpc.Response, error) {
	return s.Call(ctx, "acceptLatestContactRequestForContact", map[string]string{"id": contactID})
}

func (s *Service) DeclineContactRequest(ctx context.Context, requestID string) (*rpc.Response, error) {
	return s.Call(ctx, "declineContactRequest", map[string]string{"id": requestID})
}

func (s *Service) DismissLatestContactRequestForContact(ctx context.Context, contactID string) (*rpc.Response, error) {
	return s.Call(ctx, "dismissLatestContactRequestForContact", map[string]string{"id": contactID})
}

func (s *Service) GetLatestContactRequestForContact(ctx context.Context, contactID string) (*rpc.Response, error) {
	return s.Call(ctx, "getLatestContactRequestForContact", contactID)
}

func (s *Service) RetractContactRequest(ctx context.Context, contactID string) (*rpc.Response, error) {
	return s.Call(ctx, "retractContactRequest", map[string]string{"id": contactID})
}

func (s *Service) RemoveContact(ctx context.Context, contactID string) (*rpc.Response, error) {
	return s.Call(ctx, "removeContact", contactID)
}

func (s *Service) SetContactLocalNickname(ctx context.Context, contactID, nickname string) (*rpc.Response, error) {
	return s.Call(ctx, "setContactLocalNickname", map[string]string{"id": contactID, "nickname": nickname})
}

func (s *Service) Contacts(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "contacts")
}

func (s *Service) AddContact(ctx context.Context, contactID, displayName string) (*rpc.Response, error) {
	return s.Call(ctx, "addContact", map[string]string{"id": contactID, "displayName": displayName})
}

func (s *Service) SendOneToOneMessage(ctx context.Context, contactID, message string) (*rpc.Response, error) {
	return s.Call(ctx, "sendOneToOneMessage", map[string]string{"id": contactID, "message": message})
}

func (s *Service) CreateOneToOneChat(ctx context.Context, chatID, ensName string) (*rpc.Response, error) {
	return s.Call(ctx, "createOneToOneChat", map[string]string{"id": chatID, "ensName": ensName})
}

func (s *Service) CreateGroupChatWithMembers(ctx context.Context, name string, members []string) (*rpc.Response, error) {
	return s.Call(ctx, "createGroupChatWithMembers", nil, name, members)
}

func (s *Service) SendGroupChatMessage(ctx context.Context, groupID, message string) (*rpc.Response, error) {
	return s.Call(ctx, "sendGroupChatMessage", map[string]string{"id": groupID, "message": message})
}

func (s *Service) CreateCommunity(ctx context.Context, name string) (*rpc.Response, error) {
	return s.Call(ctx, "createCommunity", map[string]interface{}{
		"membership":  MembershipOpen,
		"name":        name,
		"color":       defaultCommunityColor,
		"description": name,
	})
}

func (s *Service) FetchCommunity(ctx context.Context, communityKey string) (*rpc.Response, error) {
	return s.Call(ctx, "fetchCommunity", map[string]interface{}{
		"communityKey":    communityKey,
		"waitForResponse": true,
		"tryDatabase":     true,
	})
}

func (s *Service) RequestToJoinCommunity(ctx context.Context, communityID, address string) (*rpc.Response, error) {
	return s.Call(ctx, "requestToJoinCommunity", map[string]interface{}{
		"communityId":       communityID,
		"addressesToReveal": []string{address},
		"airdropAddress":    address,
	})
}

func (s *Service) AcceptRequestToJoinCommunity(ctx context.Context, requestToJoinID string) (*rpc.Response, error) {
	return s.Call(ctx, "acceptRequestToJoinCommunity", map[string]string{"id": requestToJoinID})
}

func (s *Service) LeaveCommunity(ctx context.Context, communityID string) (*rpc.Response, error) {
	return s.Call(ctx, "leaveCommunity", communityID)
}

func (s *Service) SendChatMessage(ctx context.Context, chatID, text string) (*rpc.Response, error) {
	return s.Call(ctx, "sendChatMessage", ChatMessage{ChatID: chatID, Text: text, ContentType: ContentTypeTextPlain})
}

func (s *Service) SendChatMessages(ctx context.Context, messages []ChatMessage) (*rpc.Response, error) {
	return s.Call(ctx, "sendChatMessages", messages)
}

func (s *Service) ResendChatMessage(ctx context.Context, messageID string) (*rpc.Response, error) {
	return s.Call(ctx, "reSendChatMessage", messageID)
}

func (s *Service) ChatMessages(ctx context.Context, chatID, cursor string, limit int) (*rpc.Response, error) {
	return s.Call(ctx, "chatMessages", chatID, cursor, limit)
}

func (s *Service) MessageByMessageID(ctx context.Context, messageID string) (*rpc.Response, error) {
	return s.Call(ctx, "messageByMessageID", messageID)
}

func (s *Service) AllMessagesFromChatWhichMatchTerm(ctx context.Context, chatID, term string, caseSensitive bool) (*rpc.Response, error) {
	return s.Call(ctx, "allMessagesFromChatWhichMatchTerm", chatID, term, caseSensitive)
}

func (s *Service) SendPinMessage(ctx context.Context, message PinMessage) (*rpc.Response, error) {
	return s.Call(ctx, "sendPinMessage", message)
}

func (s *Service) ChatPinnedMessages(ctx context.Context, chatID, cursor string, limit int) (*rpc.Response, error) {
	return s.Call(ctx, "chatPinnedMessages", chatID, cursor, limit)
}

func (s *Service) SetUserStatus(ctx context.Context, status int, customText string) (*rpc.Response, error) {
	return s.Call(ctx, "setUserStatus", status, customText)
}

func (s *Service) StatusUpdates(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "statusUpdates")
}

func (s *Service) EditMessage(ctx context.Context, messageID, text string) (*rpc.Response, error) {
	return s.Call(ctx, "editMessage", map[string]string{"id": messageID, "text": text})
}

func (s *Service) DeleteMessage(ctx context.Context, messageID string) (*rpc.Response, error) {
	return s.Call(ctx, "deleteMessage", messageID)
}

func (s *Service) DeleteMessagesByChatID(ctx context.Context, chatID string) (*rpc.Response, error) {
	return s.Call(ctx, "deleteMessagesByChatID", chatID)
}

func (s *Service) DeleteMessageAndSend(ctx context.Context, messageID string) (*rpc.Response, error) {
	return s.Call(ctx, "deleteMessageAndSend", messageID)
}

func (s *Service) DeleteMessageForMeAndSync(ctx context.Context, localChatID, messageID string) (*rpc.Response, error) {
	return s.Call(ctx, "deleteMessageForMeAndSync", localChatID, messageID)
}

func (s *Service) MarkMessageAsUnread(ctx context.Context, chatID, messageID string) (*rpc.Response, error) {
	return s.Call(ctx, "markMessageAsUnread", chatID, messageID)
}

func (s *Service) FirstUnseenMessageID(ctx context.Context, chatID string) (*rpc.Response, error) {
	return s.Call(ctx, "firstUnseenMessageID", chatID)
}

func (s *Service) Chats(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "chats")
}

func (s *Service) Chat(ctx context.Context, chatID string) (*rpc.Response, error) {
	return s.Call(ctx, "chat", chatID)
}

func (s *Service) ActiveChats(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "activeChats")
}

func (s *Service) MuteChat(ctx context.Context, chatID string) (*rpc.Response, error) {
	return s.Call(ctx, "muteChat", chatID)
}

func (s *Service) UnmuteChat(ctx context.Context, chatID string) (*rpc.Response, error) {
	return s.Call(ctx, "unmuteChat", chatID)
}

func (s *Service) ClearHistory(ctx context.Context, chatID string) (*rpc.Response, error) {
	return s.Call(ctx, "clearHistory", map[string]string{"id": chatID})
}

func (s *Service) DeactivateChat(ctx context.Context, chatID string, preserveHistory bool) (*rpc.Response, error) {
	return s.Call(ctx, "deactivateChat", map[string]interface{}{"id": chatID, "preserveHistory": preserveHistory})
}

// LogTest makes the backend emit a log line at every level.
func (s *Service) LogTest(ctx context.Context) (*rpc.Response, error) {
	return s.Call(ctx, "logTest")
}
