package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingRequiredFields is matched by errors.Is for any MissingFieldsError.
var ErrMissingRequiredFields = errors.New("missing required fields")

// MissingFieldsError lists the required fields absent from a new order
type MissingFieldsError struct {
	Fields []string
}

// Error implements the error interface
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequiredFields, strings.Join(e.Fields, ", "))
}

// Is reports whether target is ErrMissingRequiredFields.
func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingRequiredFields
}

var requiredFields = []struct {
	key   string
	alias string
}{
	{FieldPatient, AliasPatient},
	{FieldCompany, AliasCompany},
	{FieldPhysician, AliasPhysician},
}

// ValidateNewOrder checks that patient, company and physician are present and non-empty,
// under either their canonical key or their alias. The fields are never modified.
func ValidateNewOrder(fields map[string]any) error {
	var missing []string
	for _, f := range requiredFields {
		if _, ok := lookup(fields, f.key, f.alias); !ok {
			missing = append(missing, f.key)
		}
	}

	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	return nil
}
