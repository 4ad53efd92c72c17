package steps

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-backend-tests/api"
	"github.com/status-im/status-backend-tests/logutils"
	"github.com/status-im/status-backend-tests/signal"
)

// SendContactRequest sends a contact request from sender to receiver and
// waits until receiver gets it. It returns the id of the contact request
// message as seen by receiver.
func SendContactRequest(ctx context.Context, sender, receiver *api.StatusBackend, text string) (string, error) {
	expectation, err := receiver.Signals().PrepareExpectation(signal.MessagesNew,
		messageFrom(sender.PublicKey(), signal.ContentTypeContactRequest), 1)
	if err != nil {
		return "", err
	}
	defer expectation.Cancel()

	if _, err := sender.Wakuext.SendContactRequest(ctx, receiver.PublicKey(), text); err != nil {
		return "", errors.Wrap(err, "send contact request")
	}
	env, err := wait(ctx, expectation)
	if err != nil {
		return "", errors.Wrapf(err, "%s didn't get contact request from %s", receiver.Name(), sender.Name())
	}
	msg, _ := env.Event.(*signal.MessagesNewEvent).FirstByContentType(signal.ContentTypeContactRequest)
	logutils.ZapLogger().Named("Steps").Debug("received contact request",
		zap.String("receiver", receiver.Name()),
		zap.String("messageID", msg.ID),
		zap.String("text", msg.Text))
	return msg.ID, nil
}

// ExchangeContactRequest makes sender and receiver mutual contacts: receiver
// accepts the contact request of sender and sender waits for the acceptance.
func ExchangeContactRequest(ctx context.Context, sender, receiver *api.StatusBackend, text string) error {
	requestID, err := SendContactRequest(ctx, sender, receiver, text)
	if err != nil {
		return err
	}

	expectation, err := sender.Signals().PrepareExpectation(signal.MessagesNew,
		messageFrom(receiver.PublicKey(), signal.ContentTypeSystemMessageMutualEventAccepted), 1)
	if err != nil {
		return err
	}
	defer expectation.Cancel()

	if _, err := receiver.Wakuext.AcceptContactRequest(ctx, requestID); err != nil {
		return errors.Wrap(err, "accept contact request")
	}
	if _, err := wait(ctx, expectation); err != nil {
		return errors.Wrapf(err, "%s contact request acceptance not received from %s", sender.Name(), receiver.Name())
	}
	return nil
}

// messageFrom matches messages.new carrying a message of contentType sent by
// publicKey.
func messageFrom(publicKey string, contentType int) signal.Predicate {
	return func(env *signal.Envelope) bool {
		event, ok := env.Event.(*signal.MessagesNewEvent)
		if !ok {
			return false
		}
		for _, m := range event.Messages {
			if m.ContentType == contentType && m.From == publicKey {
				return true
			}
		}
		return false
	}
}
