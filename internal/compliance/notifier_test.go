package compliance_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/quotedprintable"
	netmail "net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/temirov/portalaudit/internal/compliance"
)

type recordingMailClient struct {
	messages []*mail.Msg
	failure  error
}

func (client *recordingMailClient) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if client.failure != nil {
		return client.failure
	}
	client.messages = append(client.messages, messages...)
	return nil
}

func parseSentMessage(testInstance *testing.T, message *mail.Msg) *netmail.Message {
	testInstance.Helper()
	var encoded bytes.Buffer
	_, writeError := message.WriteTo(&encoded)
	require.NoError(testInstance, writeError)
	parsed, parseError := netmail.ReadMessage(&encoded)
	require.NoError(testInstance, parseError)
	return parsed
}

func decodedSubject(testInstance *testing.T, parsed *netmail.Message) string {
	testInstance.Helper()
	subject, decodeError := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(testInstance, decodeError)
	return subject
}

func headerAddress(testInstance *testing.T, parsed *netmail.Message, header string) string {
	testInstance.Helper()
	address, parseError := netmail.ParseAddress(parsed.Header.Get(header))
	require.NoError(testInstance, parseError)
	return address.Address
}

func TestSMTPNotifierComposesMessage(testInstance *testing.T) {
	client := &recordingMailClient{}
	notifier, notifierError := compliance.NewSMTPNotifier(compliance.MailConfiguration{RelayHost: "mail.example.com", Sender: "gis@example.com"}, client)
	require.NoError(testInstance, notifierError)

	notifyError := notifier.Notify(context.Background(), compliance.Notification{
		Recipient: "owner@example.com",
		Subject:   "Fix your item",
		Body:      "line one\nline two",
	})
	require.NoError(testInstance, notifyError)
	require.Len(testInstance, client.messages, 1)

	parsed := parseSentMessage(testInstance, client.messages[0])
	require.Equal(testInstance, "gis@example.com", headerAddress(testInstance, parsed, "From"))
	require.Equal(testInstance, "owner@example.com", headerAddress(testInstance, parsed, "To"))
	require.Equal(testInstance, "Fix your item", decodedSubject(testInstance, parsed))
	require.Contains(testInstance, parsed.Header.Get("Content-Type"), "text/plain")

	body, readError := io.ReadAll(quotedprintable.NewReader(parsed.Body))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(body), "line one")
	require.Contains(testInstance, string(body), "line two")
}

func TestSMTPNotifierEncodesHeaders(testInstance *testing.T) {
	testCases := []struct {
		name          string
		subject       string
		subjectPrefix string
	}{
		{name: "non ascii subject", subject: "Élément sans vignette: Überprüfung nötig", subjectPrefix: "Élément sans vignette: Überprüfung nötig"},
		{name: "subject with line breaks", subject: "Fix your item\r\nBcc: intruder@example.com", subjectPrefix: "Fix your item"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client := &recordingMailClient{}
			notifier, notifierError := compliance.NewSMTPNotifier(compliance.MailConfiguration{RelayHost: "mail.example.com", Sender: "gis@example.com"}, client)
			require.NoError(testInstance, notifierError)

			require.NoError(testInstance, notifier.Notify(context.Background(), compliance.Notification{
				Recipient: "owner@example.com",
				Subject:   testCase.subject,
				Body:      "body",
			}))
			require.Len(testInstance, client.messages, 1)

			parsed := parseSentMessage(testInstance, client.messages[0])
			require.Empty(testInstance, parsed.Header.Get("Bcc"))
			require.NotEqual(testInstance, testCase.subject, parsed.Header.Get("Subject"))
			require.True(testInstance, strings.HasPrefix(decodedSubject(testInstance, parsed), testCase.subjectPrefix))
		})
	}
}

func TestSMTPNotifierRejectsMalformedRecipient(testInstance *testing.T) {
	client := &recordingMailClient{}
	notifier, notifierError := compliance.NewSMTPNotifier(compliance.MailConfiguration{RelayHost: "mail.example.com", Sender: "gis@example.com"}, client)
	require.NoError(testInstance, notifierError)

	notifyError := notifier.Notify(context.Background(), compliance.Notification{Recipient: "owner@example.com\r\nBcc: intruder@example.com"})
	require.Error(testInstance, notifyError)
	require.Empty(testInstance, client.messages)
}

func TestSMTPNotifierWrapsSendFailure(testInstance *testing.T) {
	sendFailure := errors.New("relay refused")
	notifier, notifierError := compliance.NewSMTPNotifier(
		compliance.MailConfiguration{RelayHost: "mail.example.com", Sender: "gis@example.com"},
		&recordingMailClient{failure: sendFailure},
	)
	require.NoError(testInstance, notifierError)

	notifyError := notifier.Notify(context.Background(), compliance.Notification{Recipient: "owner@example.com"})
	require.ErrorIs(testInstance, notifyError, sendFailure)
}

func TestNewSMTPNotifierBuildsRelayClient(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration compliance.MailConfiguration
	}{
		{name: "anonymous relay", configuration: compliance.MailConfiguration{RelayHost: "mail.example.com", Sender: "gis@example.com"}},
		{name: "authenticated relay", configuration: compliance.MailConfiguration{RelayHost: "mail.example.com", RelayPort: 587, Sender: "gis@example.com", Username: "relay", Password: "secret"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			notifier, notifierError := compliance.NewSMTPNotifier(testCase.configuration, nil)
			require.NoError(testInstance, notifierError)
			require.NotNil(testInstance, notifier)
		})
	}
}

func TestNewSMTPNotifierRequiresRelayAndSender(testInstance *testing.T) {
	_, relayError := compliance.NewSMTPNotifier(compliance.MailConfiguration{Sender: "gis@example.com"}, nil)
	require.ErrorIs(testInstance, relayError, compliance.ErrRelayNotConfigured)

	_, senderError := compliance.NewSMTPNotifier(compliance.MailConfiguration{RelayHost: "mail.example.com"}, nil)
	require.ErrorIs(testInstance, senderError, compliance.ErrSenderNotConfigured)
}
