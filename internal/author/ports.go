package author

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=author

// Repository defines the contract for author storage.
type Repository interface {
	List() []Author
	FindByID(id uuid.UUID) (Author, bool)
	Add(a Author) (Author, error)
}

// Publisher delivers change notifications. Implementations must absorb
// their own failures.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}
