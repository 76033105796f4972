package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CameronXie/prosthesis-orders/internal/domain"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestNewNotification(t *testing.T) {
	testCases := map[string]struct {
		fields   map[string]any
		expected Notification
	}{
		"should map every field": {
			fields: map[string]any{
				"paciente":     "J. Diaz",
				"dni":          "12345678",
				"medico":       "Dr. Ruiz",
				"empresa":      "ACME",
				"tubos":        "2 x 7.5",
				"recibe":       "M. Paz",
				"fecha_pedido": "2024-05-01",
				"notas":        "urgente",
			},
			expected: Notification{
				Patient:       "J. Diaz",
				NationalID:    "12345678",
				Physician:     "Dr. Ruiz",
				Company:       "ACME",
				Tubes:         "2 x 7.5",
				Receiver:      "M. Paz",
				ReceptionDate: "2024-05-01",
				Notes:         "urgente",
			},
		},
		"should use fallbacks for absent optional fields": {
			fields: map[string]any{
				"paciente": "J. Diaz",
				"medico":   "Dr. Ruiz",
				"empresa":  "ACME",
				"dni":      "",
			},
			expected: Notification{
				Patient:    "J. Diaz",
				NationalID: NotSpecified,
				Physician:  "Dr. Ruiz",
				Company:    "ACME",
				Receiver:   NotSpecified,
				Notes:      NoNotes,
			},
		},
		"should read aliases and format non-string values": {
			fields: map[string]any{
				"patient":   "J. Diaz",
				"physician": "Dr. Ruiz",
				"company":   "ACME",
				"tubos":     float64(3),
			},
			expected: Notification{
				Patient:    "J. Diaz",
				NationalID: NotSpecified,
				Physician:  "Dr. Ruiz",
				Company:    "ACME",
				Tubes:      "3",
				Receiver:   NotSpecified,
				Notes:      NoNotes,
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NewNotification(domain.NewOrder("1", tc.fields)))
		})
	}
}

func TestNotification_TemplateParams(t *testing.T) {
	n := Notification{
		Patient:       "J. Diaz",
		NationalID:    "1",
		Physician:     "Dr. Ruiz",
		Company:       "ACME",
		Tubes:         "2",
		Receiver:      "M. Paz",
		ReceptionDate: "2024-05-01",
		Notes:         "x",
	}

	assert.Equal(t, map[string]string{
		"paciente":        "J. Diaz",
		"dni":             "1",
		"medico":          "Dr. Ruiz",
		"empresa":         "ACME",
		"tubos":           "2",
		"recibe":          "M. Paz",
		"fecha_recepcion": "2024-05-01",
		"notas":           "x",
	}, n.TemplateParams())
}

func TestDispatcher_Dispatch(t *testing.T) {
	testCases := map[string]struct {
		notifyError error
		expectedLog map[string]string
	}{
		"should log successful delivery": {
			expectedLog: map[string]string{
				"level":    "INFO",
				"msg":      "notification sent",
				"order_id": "order-1",
			},
		},
		"should log and swallow delivery failure": {
			notifyError: errors.New("smtp unavailable"),
			expectedLog: map[string]string{
				"level":    "ERROR",
				"msg":      "failed to send notification",
				"order_id": "order-1",
				"error":    "smtp unavailable",
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			n := new(mockNotifier)
			n.On("Notify", mock.Anything, mock.MatchedBy(func(got Notification) bool {
				return got.Patient == "J. Diaz"
			})).Return(tc.notifyError)

			d := NewDispatcher(n, slog.New(slog.NewJSONHandler(&buf, nil)))
			d.Dispatch(domain.NewOrder("order-1", map[string]any{"paciente": "J. Diaz"}))

			require.NoError(t, d.Shutdown(context.Background()))

			log := buf.String()
			for k, v := range tc.expectedLog {
				assert.Contains(t, log, fmt.Sprintf("%q:%q", k, v))
			}
			n.AssertExpectations(t)
		})
	}
}

func TestDispatcher_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	d := NewDispatcher(n, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	returned := make(chan struct{})
	go func() {
		d.Dispatch(domain.NewOrder("order-1", nil))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on delivery")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Shutdown(context.Background()))
	n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDispatcher_DropsAfterShutdown(t *testing.T) {
	var buf bytes.Buffer
	n := new(mockNotifier)
	d := NewDispatcher(n, slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, d.Shutdown(context.Background()))
	d.Dispatch(domain.NewOrder("order-2", nil))

	assert.Contains(t, buf.String(), `"msg":"notification dropped after shutdown"`)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	d := NewDispatcher(n, slog.New(slog.NewJSONHandler(&buf, nil)))
	d.Dispatch(domain.NewOrder("order-3", nil))

	require.NoError(t, d.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"msg":"notification panicked"`)
}

func TestNoop_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewNoop(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	require.NoError(t, n.Notify(context.Background(), Notification{Patient: "J. Diaz"}))
	assert.Contains(t, buf.String(), `"patient":"J. Diaz"`)
}
