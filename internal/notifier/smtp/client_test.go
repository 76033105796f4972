package smtp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/CameronXie/prosthesis-orders/internal/notifier"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "secret",
		From:     "noreply@example.com",
		To:       "ortopedia@example.com",
	}
}

func TestClient_Notify(t *testing.T) {
	testCases := map[string]struct {
		sendError     error
		expectedError string
	}{
		"should send rendered message": {},
		"should wrap delivery failure": {
			sendError:     errors.New("connection refused"),
			expectedError: "send smtp message: connection refused",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			sender := new(mockSender)
			var sent []*mail.Msg
			sender.On("DialAndSendWithContext", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { sent = args.Get(1).([]*mail.Msg) }).
				Return(tc.sendError)

			client := NewClientWithSender(testConfig(), sender)
			err := client.Notify(context.Background(), notifier.Notification{Patient: "J. Diaz", Company: "ACME"})

			if tc.expectedError != "" {
				assert.EqualError(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, sent, 1)
			subject := sent[0].GetGenHeader(mail.HeaderSubject)
			require.Len(t, subject, 1)
			assert.Contains(t, subject[0], "Diaz")

			recipients, err := sent[0].GetRecipients()
			require.NoError(t, err)
			assert.Equal(t, []string{"ortopedia@example.com"}, recipients)

			var buf bytes.Buffer
			_, err = sent[0].WriteTo(&buf)
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "noreply@example.com")
			assert.Contains(t, buf.String(), "text/html")
			sender.AssertExpectations(t)
		})
	}
}

func TestClient_Notify_InvalidAddress(t *testing.T) {
	cfg := testConfig()
	cfg.To = "not an address"

	sender := new(mockSender)
	client := NewClientWithSender(cfg, sender)

	err := client.Notify(context.Background(), notifier.Notification{Patient: "J. Diaz"})

	assert.ErrorContains(t, err, "set to address")
	sender.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
}

func TestBodyTemplate_EscapesValues(t *testing.T) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, notifier.Notification{
		Patient: "<script>alert(1)</script>",
		Notes:   notifier.NoNotes,
	})

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
	assert.Contains(t, buf.String(), notifier.NoNotes)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(testConfig())

	require.NoError(t, err)
	assert.NotNil(t, client.sender)
}
