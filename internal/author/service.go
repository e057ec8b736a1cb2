package author

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bookbff/internal/metrics"
)

const (
	opList   = "authors.list"
	opGet    = "authors.get"
	opCreate = "authors.create"
)

// Service provides author-related business logic.
type Service struct {
	repo      Repository
	publisher Publisher
	metrics   *metrics.Recorder
	topic     string
	logger    *slog.Logger
	newID     func() uuid.UUID
}

type Option func(*Service)

// WithTopic sets the broker topic change notifications are sent to.
func WithTopic(topic string) Option {
	return func(s *Service) { s.topic = topic }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a new author service.
func NewService(repo Repository, publisher Publisher, recorder *metrics.Recorder, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   recorder,
		topic:     "authors",
		logger:    slog.Default(),
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every stored author in insertion order.
func (s *Service) List(ctx context.Context) []View {
	s.logger.InfoContext(ctx, "get authors")
	s.metrics.RecordRequest(ctx, opList)
	sample := s.metrics.StartSample(ctx, opList)
	defer sample.Stop()

	authors := s.repo.List()
	views := make([]View, 0, len(authors))
	for _, a := range authors {
		views = append(views, toView(a))
	}
	return views
}

// GetByID returns the author with the given id or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (View, error) {
	s.logger.InfoContext(ctx, "find author by id", "id", id)
	s.metrics.RecordRequest(ctx, opGet)
	sample := s.metrics.StartSample(ctx, opGet)
	defer sample.Stop()

	a, ok := s.repo.FindByID(id)
	if !ok {
		s.metrics.RecordError(ctx, opGet)
		return View{}, ErrNotFound
	}
	return toView(a), nil
}

// Create stores a new author and announces it on the notification topic.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (View, error) {
	s.logger.InfoContext(ctx, "create author")
	s.metrics.RecordRequest(ctx, opCreate)
	sample := s.metrics.StartSample(ctx, opCreate)
	defer sample.Stop()

	stored, err := s.repo.Add(Author{
		ID:        s.newID(),
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Address:   cmd.Address,
		Language:  cmd.Language,
	})
	if err != nil {
		s.metrics.RecordError(ctx, opCreate)
		return View{}, fmt.Errorf("store author: %w", err)
	}

	view := toView(stored)
	s.publisher.Publish(ctx, s.topic, view)
	return view, nil
}
