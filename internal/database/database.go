package database

import (
	"context"
	"errors"
	"time"

	"github.com/dialbook/dialbook/internal/model"
)

// DefaultTimeout is the default length of time to wait
// for a database operation to complete.
const DefaultTimeout = time.Second * 3

// Storage errors
var (
	// ErrNotFound is returned when no record matches a well-formed id.
	ErrNotFound = errors.New("record not found")

	// ErrUsernameTaken is returned when registering a user whose
	// username already exists.
	ErrUsernameTaken = errors.New("username must be unique")
)

// Database handles all interactions with the data backend.
type Database interface {
	PersonDB
	UserDB
	Close() error
}

// PersonDB handles interactions with the phonebook entries.
type PersonDB interface {
	ListPersons(ctx context.Context) ([]*model.Person, error)
	GetPerson(ctx context.Context, id string) (*model.Person, error)
	CreatePerson(ctx context.Context, person *model.Person) (*model.Person, error)
	ReplacePerson(ctx context.Context, id string, update model.PersonUpdate) (*model.Person, error)
	DeletePerson(ctx context.Context, id string) error
	PersonsByUser(ctx context.Context, userID string) ([]*model.Person, error)
}

// UserDB handles interactions with the user database,
// which may or may not be the same as other databases.
type UserDB interface {
	RegisterUser(ctx context.Context, user *model.User) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}
