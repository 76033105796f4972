package domain

import (
	"encoding/json"
	"strings"
)

// Field keys of a prosthesis order as stored and exchanged over the API.
const (
	FieldID         = "id"
	FieldPatient    = "paciente"
	FieldCompany    = "empresa"
	FieldPhysician  = "medico"
	FieldNationalID = "dni"
	FieldTubes      = "tubos"
	FieldReceiver   = "recibe"
	FieldOrderDate  = "fecha_pedido"
	FieldNotes      = "notas"
)

// Accepted aliases for the required fields.
const (
	AliasPatient   = "patient"
	AliasCompany   = "company"
	AliasPhysician = "physician"
)

// Order represents a prosthesis order: a store-assigned ID plus free-form fields
type Order struct {
	ID     string
	Fields map[string]any
}

// NewOrder creates an Order with the given ID and a copy of fields, dropping any "id" key.
func NewOrder(id string, fields map[string]any) *Order {
	return &Order{
		ID:     id,
		Fields: WithoutID(fields),
	}
}

// Lookup returns the first non-empty value stored under any of keys.
func (o *Order) Lookup(keys ...string) (any, bool) {
	return lookup(o.Fields, keys...)
}

// MarshalJSON flattens the order into a single object with the ID under "id".
func (o Order) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(o.Fields)+1)
	for k, v := range o.Fields {
		flat[k] = v
	}
	flat[FieldID] = o.ID

	return json.Marshal(flat)
}

// UnmarshalJSON reads a flat object, taking "id" as the order ID.
func (o *Order) UnmarshalJSON(data []byte) error {
	flat := make(map[string]any)
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	if id, ok := flat[FieldID].(string); ok {
		o.ID = id
	}
	delete(flat, FieldID)
	o.Fields = flat

	return nil
}

// WithoutID returns a shallow copy of fields without the "id" key.
func WithoutID(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == FieldID {
			continue
		}
		out[k] = v
	}

	return out
}

func lookup(fields map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || isEmpty(v) {
			continue
		}

		return v, true
	}

	return nil, false
}

// isEmpty reports whether v is null or a blank string.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
