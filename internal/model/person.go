package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofrs/uuid"
)

// Person is a single phonebook entry owned by a user.
type Person struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Number Number    `json:"number"`
	UserID string    `json:"-"`
	User   *UserData `json:"user,omitempty"`
}

// PersonUpdate carries the replaceable fields of a person.
type PersonUpdate struct {
	Name   string `json:"name" validate:"required"`
	Number Number `json:"number" validate:"required"`
}

// Number holds a phone number as sent by the client. Only presence is
// enforced, so any JSON primitive is accepted.
type Number string

// UnmarshalJSON accepts a JSON string, number or boolean.
func (n *Number) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*n = Number(v)
	case float64:
		*n = Number(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		*n = Number(strconv.FormatBool(v))
	case nil:
		*n = ""
	default:
		return fmt.Errorf("number must be a primitive, got %T", raw)
	}
	return nil
}

// ValidateID reports whether raw is a well-formed person identifier.
// A well-formed id which matches no record is a separate condition
// (not found) from a malformed one.
func ValidateID(raw string) error {
	if _, err := uuid.FromString(raw); err != nil {
		return RequestErrInvalidID
	}
	return nil
}
