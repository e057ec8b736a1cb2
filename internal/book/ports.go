package book

import (
	"context"

	"github.com/google/uuid"

	"bookbff/internal/author"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=book

// Repository defines the contract for book storage.
type Repository interface {
	List() []Book
	FindByID(id uuid.UUID) (Book, bool)
	Add(b Book) (Book, error)
}

// AuthorResolver looks an author up in the authors domain. Any failure,
// transient or not, is reported as not found.
type AuthorResolver interface {
	ResolveAuthor(ctx context.Context, id uuid.UUID) (author.View, bool)
}

// Publisher delivers change notifications. Implementations must absorb
// their own failures.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}
