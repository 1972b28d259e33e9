package database

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/dialbook/dialbook/internal/config"
	"github.com/dialbook/dialbook/internal/model"
)

// BadgerDB holds a connection to a Badger backend.
type BadgerDB struct {
	InMemory bool
	DB       *badger.DB
}

const (
	prefixPerson   = "person"
	prefixUser     = "user"
	prefixUsername = "username"
)

// personRecord is the stored form of a person. The API model hides the
// owner reference and the user model hides the password hash, so the
// store keeps its own document shapes.
type personRecord struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Number model.Number `json:"number"`
	UserID string       `json:"user_id,omitempty"`
}

type userRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

func (r *personRecord) toModel() *model.Person {
	return &model.Person{
		ID:     r.ID,
		Name:   r.Name,
		Number: r.Number,
		UserID: r.UserID,
	}
}

func (r *userRecord) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
	}
}

func makePersonKey(id string) []byte {
	return makeKey(prefixPerson, id)
}

func makeUserKey(id string) []byte {
	return makeKey(prefixUser, id)
}

func makeUsernameKey(username string) []byte {
	return makeKey(prefixUsername, username)
}

func makeKey(prefix, id string) []byte {
	return []byte(fmt.Sprintf("%s_%s", prefix, id))
}

// iterPrefix returns the iteration prefix for a key class. The trailing
// separator is required: "user" alone would also match "username" keys.
func iterPrefix(prefix string) []byte {
	return []byte(prefix + "_")
}

// NewBadgerDB creates a new database with a Badger backend.
// Pass `true` to create an in-memory database (useful in tests, for example).
func NewBadgerDB(inMemory bool) (*BadgerDB, error) {
	var path string
	if !inMemory {
		path = config.Current.Database.Dir
	}
	opts := badger.DefaultOptions(path).WithInMemory(inMemory).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}

	return &BadgerDB{DB: db, InMemory: inMemory}, nil
}

// Close handles closing all connections to the database.
func (db *BadgerDB) Close() error {
	return db.DB.Close()
}

func getJSON(txn *badger.Txn, key []byte, dest interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return item.Value(func(v []byte) error {
		return json.Unmarshal(v, dest)
	})
}

func setJSON(txn *badger.Txn, key []byte, src interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

// attachOwner resolves a person's owning user to its public fields.
// A dangling owner reference leaves User nil rather than failing the read.
func attachOwner(txn *badger.Txn, person *model.Person, cache map[string]*model.UserData) error {
	if person.UserID == "" {
		return nil
	}
	if data, ok := cache[person.UserID]; ok {
		person.User = data
		return nil
	}
	var record userRecord
	err := getJSON(txn, makeUserKey(person.UserID), &record)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	data := record.toModel().ToUserData()
	if cache != nil {
		cache[person.UserID] = data
	}
	person.User = data
	return nil
}

// ListPersons lists all phonebook entries with owners resolved.
func (db *BadgerDB) ListPersons(ctx context.Context) ([]*model.Person, error) {
	persons := make([]*model.Person, 0)
	err := db.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		cache := make(map[string]*model.UserData)
		prefix := iterPrefix(prefixPerson)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record personRecord
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &record)
			})
			if err != nil {
				return err
			}
			person := record.toModel()
			if err := attachOwner(txn, person, cache); err != nil {
				return err
			}
			persons = append(persons, person)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list persons")
	}
	return persons, nil
}

// GetPerson retrieves a single phonebook entry by id, with the owner
// resolved. Returns ErrNotFound when no record matches.
func (db *BadgerDB) GetPerson(ctx context.Context, id string) (*model.Person, error) {
	var person *model.Person
	err := db.DB.View(func(txn *badger.Txn) error {
		var record personRecord
		if err := getJSON(txn, makePersonKey(id), &record); err != nil {
			return err
		}
		person = record.toModel()
		return attachOwner(txn, person, nil)
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// CreatePerson persists a new phonebook entry, assigning it an id.
// The stored record is returned with the owner resolved.
func (db *BadgerDB) CreatePerson(ctx context.Context, person *model.Person) (*model.Person, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	person.ID = id.String()

	record := personRecord{
		ID:     person.ID,
		Name:   person.Name,
		Number: person.Number,
		UserID: person.UserID,
	}
	err = db.DB.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, makePersonKey(record.ID), &record); err != nil {
			return err
		}
		return attachOwner(txn, person, nil)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create person")
	}
	return person, nil
}

// ReplacePerson overwrites the name and number of the entry matching id.
// Returns ErrNotFound when no record matches.
func (db *BadgerDB) ReplacePerson(ctx context.Context, id string, update model.PersonUpdate) (*model.Person, error) {
	var person *model.Person
	err := db.DB.Update(func(txn *badger.Txn) error {
		var record personRecord
		if err := getJSON(txn, makePersonKey(id), &record); err != nil {
			return err
		}
		record.Name = update.Name
		record.Number = update.Number
		if err := setJSON(txn, makePersonKey(id), &record); err != nil {
			return err
		}
		person = record.toModel()
		return attachOwner(txn, person, nil)
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// DeletePerson removes the entry matching id.
// Returns ErrNotFound when no record matches.
func (db *BadgerDB) DeletePerson(ctx context.Context, id string) error {
	return db.DB.Update(func(txn *badger.Txn) error {
		key := makePersonKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// PersonsByUser lists the phonebook entries owned by the given user.
func (db *BadgerDB) PersonsByUser(ctx context.Context, userID string) ([]*model.Person, error) {
	persons := make([]*model.Person, 0)
	err := db.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := iterPrefix(prefixPerson)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record personRecord
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &record)
			})
			if err != nil {
				return err
			}
			if record.UserID == userID {
				persons = append(persons, record.toModel())
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list persons by user")
	}
	return persons, nil
}

// RegisterUser persists a new user, assigning it an id. Usernames are
// unique; a taken username returns ErrUsernameTaken before any write.
func (db *BadgerDB) RegisterUser(ctx context.Context, user *model.User) (*model.User, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	user.ID = id.String()

	record := userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
	}
	err = db.DB.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(makeUsernameKey(record.Username))
		if err == nil {
			return ErrUsernameTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, makeUserKey(record.ID), &record); err != nil {
			return err
		}
		return txn.Set(makeUsernameKey(record.Username), []byte(record.ID))
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, errors.Wrap(err, "register user")
	}
	return user, nil
}

// ListUsers lists all users in the database.
func (db *BadgerDB) ListUsers(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0)
	err := db.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := iterPrefix(prefixUser)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record userRecord
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &record)
			})
			if err != nil {
				return err
			}
			users = append(users, record.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}

// GetUserByID retrieves a user by id. Returns ErrNotFound when no
// record matches.
func (db *BadgerDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var record userRecord
	err := db.DB.View(func(txn *badger.Txn) error {
		return getJSON(txn, makeUserKey(id), &record)
	})
	if err != nil {
		return nil, err
	}
	return record.toModel(), nil
}

// GetUserByUsername retrieves a user through the username index.
// Returns ErrNotFound when no record matches.
func (db *BadgerDB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var record userRecord
	err := db.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeUsernameKey(username))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		var id string
		if err := item.Value(func(v []byte) error {
			id = string(v)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, makeUserKey(id), &record)
	})
	if err != nil {
		return nil, err
	}
	return record.toModel(), nil
}
