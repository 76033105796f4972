package repository

import (
	"fmt"
)

// OrderResource names prosthesis orders in repository errors.
const OrderResource = "order"

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	Key      string
	Value    string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %s not found", e.Resource, e.Key, e.Value)
}

// OrderNotFound builds a NotFoundError for the order with the given ID.
func OrderNotFound(id string) *NotFoundError {
	return &NotFoundError{
		Resource: OrderResource,
		Key:      "id",
		Value:    id,
	}
}
