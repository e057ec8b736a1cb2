package book

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrAuthorNotFound is returned by Create when the referenced author cannot
// be resolved. It matches ErrNotFound under errors.Is.
var ErrAuthorNotFound = fmt.Errorf("author isn't found: %w", ErrNotFound)

// Book is the stored book entity. AuthorID is captured at creation and never
// re-validated.
type Book struct {
	ID       uuid.UUID
	Title    string
	Pages    int
	AuthorID uuid.UUID
}

func (b Book) Identity() uuid.UUID { return b.ID }

// View is the public projection of a Book.
type View struct {
	ID       uuid.UUID `json:"id"`
	AuthorID uuid.UUID `json:"authorId"`
	Title    string    `json:"title"`
	Pages    int       `json:"pages"`
}

// CreateCommand carries the client-supplied fields of a new book.
type CreateCommand struct {
	Title    string    `json:"title" validate:"required,max=255"`
	AuthorID uuid.UUID `json:"authorId" validate:"required"`
	Pages    int       `json:"pages" validate:"min=1"`
}

func toView(b Book) View {
	return View{
		ID:       b.ID,
		AuthorID: b.AuthorID,
		Title:    b.Title,
		Pages:    b.Pages,
	}
}
