package author

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an author is not found.
var ErrNotFound = errors.New("author not found")

// Author is the stored author entity.
type Author struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Address   string
	Language  string
}

func (a Author) Identity() uuid.UUID { return a.ID }

// View is the public projection of an Author.
type View struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Address   string    `json:"address"`
	Language  string    `json:"language"`
}

// CreateCommand carries the client-supplied fields of a new author.
type CreateCommand struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Address   string `json:"address" validate:"max=255"`
	Language  string `json:"language" validate:"max=50"`
}

func toView(a Author) View {
	return View{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Address:   a.Address,
		Language:  a.Language,
	}
}
