package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

const (
	relayNotConfiguredMessageConstant  = "mail relay host not configured"
	senderNotConfiguredMessageConstant = "mail sender not configured"
	clientConstructionTemplateConstant = "unable to configure mail relay %s: %w"
	composeFailedTemplateConstant      = "unable to compose notification to %s: %w"
	sendFailedTemplateConstant         = "unable to send notification to %s: %w"
)

var (
	// ErrRelayNotConfigured indicates the SMTP relay host is missing.
	ErrRelayNotConfigured = errors.New(relayNotConfiguredMessageConstant)
	// ErrSenderNotConfigured indicates the sender address is missing.
	ErrSenderNotConfigured = errors.New(senderNotConfiguredMessageConstant)
)

// Notification is one message about one violated rule of one item.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
	ItemID    string
	Rule      Rule
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(executionContext context.Context, notification Notification) error
}

// MailClient delivers composed messages. *mail.Client satisfies it.
type MailClient interface {
	DialAndSendWithContext(executionContext context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier delivers notifications through a mail relay.
type SMTPNotifier struct {
	sender string
	client MailClient
}

// NewSMTPNotifier constructs a notifier for the configured relay. A nil client dials the relay with go-mail,
// using PLAIN authentication when a username is configured and STARTTLS when the relay offers it.
func NewSMTPNotifier(configuration MailConfiguration, client MailClient) (*SMTPNotifier, error) {
	relayHost := strings.TrimSpace(configuration.RelayHost)
	if len(relayHost) == 0 {
		return nil, ErrRelayNotConfigured
	}
	sender := strings.TrimSpace(configuration.Sender)
	if len(sender) == 0 {
		return nil, ErrSenderNotConfigured
	}
	if configuration.RelayPort <= 0 {
		configuration.RelayPort = defaultMailRelayPortConstant
	}
	if client == nil {
		options := []mail.Option{
			mail.WithPort(configuration.RelayPort),
			mail.WithTLSPolicy(mail.TLSOpportunistic),
		}
		if len(configuration.Username) > 0 {
			options = append(options,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(configuration.Username),
				mail.WithPassword(configuration.Password),
			)
		}
		relayClient, clientError := mail.NewClient(relayHost, options...)
		if clientError != nil {
			return nil, fmt.Errorf(clientConstructionTemplateConstant, relayHost, clientError)
		}
		client = relayClient
	}
	return &SMTPNotifier{sender: sender, client: client}, nil
}

// Notify sends one plain-text message.
func (notifier *SMTPNotifier) Notify(executionContext context.Context, notification Notification) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}
	message, composeError := composeMessage(notifier.sender, notification)
	if composeError != nil {
		return fmt.Errorf(composeFailedTemplateConstant, notification.Recipient, composeError)
	}
	if sendError := notifier.client.DialAndSendWithContext(executionContext, message); sendError != nil {
		return fmt.Errorf(sendFailedTemplateConstant, notification.Recipient, sendError)
	}
	return nil
}

// composeMessage builds the message; go-mail validates the addresses and encodes the headers.
func composeMessage(sender string, notification Notification) (*mail.Msg, error) {
	message := mail.NewMsg()
	if senderError := message.From(sender); senderError != nil {
		return nil, senderError
	}
	if recipientError := message.To(notification.Recipient); recipientError != nil {
		return nil, recipientError
	}
	message.Subject(notification.Subject)
	message.SetBodyString(mail.TypeTextPlain, notification.Body)
	return message, nil
}
