package book

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bookbff/internal/metrics"
)

const (
	opList   = "books.list"
	opGet    = "books.get"
	opCreate = "books.create"
)

// Service provides book-related business logic.
type Service struct {
	repo      Repository
	authors   AuthorResolver
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

// NewService creates a new book service.
func NewService(repo Repository, authors AuthorResolver, publisher Publisher, recorder *metrics.Recorder, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		authors:   authors,
		publisher: publisher,
		metrics:   recorder,
		topic:     "books",
		logger:    slog.Default(),
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every stored book in insertion order.
func (s *Service) List(ctx context.Context) []View {
	s.logger.InfoContext(ctx, "get book list")
	s.metrics.RecordRequest(ctx, opList)
	sample := s.metrics.StartSample(ctx, opList)
	defer sample.Stop()

	books := s.repo.List()
	views := make([]View, 0, len(books))
	for _, b := range books {
		views = append(views, toView(b))
	}
	return views
}

// GetByID returns the book with the given id or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (View, error) {
	s.logger.InfoContext(ctx, "find book by id", "id", id)
	s.metrics.RecordRequest(ctx, opGet)
	sample := s.metrics.StartSample(ctx, opGet)
	defer sample.Stop()

	b, ok := s.repo.FindByID(id)
	if !ok {
		s.metrics.RecordError(ctx, opGet)
		return View{}, ErrNotFound
	}
	return toView(b), nil
}

// Create validates the author reference, stores the book and announces it.
// When the author cannot be resolved nothing is stored or published and
// ErrAuthorNotFound is returned.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (View, error) {
	s.logger.InfoContext(ctx, "create book", "author_id", cmd.AuthorID)
	s.metrics.RecordRequest(ctx, opCreate)
	sample := s.metrics.StartSample(ctx, opCreate)
	defer sample.Stop()

	resolved, ok := s.authors.ResolveAuthor(ctx, cmd.AuthorID)
	if !ok {
		s.metrics.RecordError(ctx, opCreate)
		return View{}, ErrAuthorNotFound
	}

	stored, err := s.repo.Add(Book{
		ID:       s.newID(),
		Title:    cmd.Title,
		Pages:    cmd.Pages,
		AuthorID: resolved.ID,
	})
	if err != nil {
		s.metrics.RecordError(ctx, opCreate)
		return View{}, fmt.Errorf("store book: %w", err)
	}

	view := toView(stored)
	s.publisher.Publish(ctx, s.topic, view)
	return view, nil
}
