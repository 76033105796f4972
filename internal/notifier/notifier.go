package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CameronXie/prosthesis-orders/internal/domain"
)

// Fallback texts used when an optional field is absent.
const (
	NotSpecified = "No especificado"
	NoNotes      = "Sin observaciones"
)

// Notifier delivers an order notification through a mail provider.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is the fixed payload sent when an order is created
type Notification struct {
	Patient       string
	NationalID    string
	Physician     string
	Company       string
	Tubes         string
	Receiver      string
	ReceptionDate string
	Notes         string
}

// NewNotification maps the order fields into a Notification.
func NewNotification(order *domain.Order) Notification {
	return Notification{
		Patient:       field(order, "", domain.FieldPatient, domain.AliasPatient),
		NationalID:    field(order, NotSpecified, domain.FieldNationalID),
		Physician:     field(order, "", domain.FieldPhysician, domain.AliasPhysician),
		Company:       field(order, "", domain.FieldCompany, domain.AliasCompany),
		Tubes:         field(order, "", domain.FieldTubes),
		Receiver:      field(order, NotSpecified, domain.FieldReceiver),
		ReceptionDate: field(order, "", domain.FieldOrderDate),
		Notes:         field(order, NoNotes, domain.FieldNotes),
	}
}

// TemplateParams returns the notification keyed by the template variable names.
func (n Notification) TemplateParams() map[string]string {
	return map[string]string{
		"paciente":        n.Patient,
		"dni":             n.NationalID,
		"medico":          n.Physician,
		"empresa":         n.Company,
		"tubos":           n.Tubes,
		"recibe":          n.Receiver,
		"fecha_recepcion": n.ReceptionDate,
		"notas":           n.Notes,
	}
}

func field(order *domain.Order, fallback string, keys ...string) string {
	v, ok := order.Lookup(keys...)
	if !ok {
		return fallback
	}

	if s, isString := v.(string); isString {
		return s
	}

	return fmt.Sprint(v)
}

// Noop discards notifications. It is used when mail delivery is disabled.
type Noop struct {
	logger *slog.Logger
}

// NewNoop creates a Notifier that only logs.
func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

// Notify implements Notifier.
func (n *Noop) Notify(ctx context.Context, notification Notification) error {
	n.logger.DebugContext(ctx, "mail delivery disabled, notification dropped", "patient", notification.Patient)
	return nil
}
