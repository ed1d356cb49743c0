// Package catalog keeps the book views' state: the browse list, the book
// being viewed, the featured shelf and the genre list.
package catalog

import (
	"context"
	"sync"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/listquery"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/binhbb2204/bookhub/pkg/models"
)

// Books is implemented by *api.BooksAPI.
type Books interface {
	List(ctx context.Context, p models.ListParams) (*models.BookListResponse, error)
	Get(ctx context.Context, id int64) (*models.Book, error)
	Featured(ctx context.Context, limit int) ([]models.Book, error)
	Genres(ctx context.Context) ([]string, error)
	ByAuthor(ctx context.Context, author string, p models.ListParams) (*models.BookListResponse, error)
	Create(ctx context.Context, in models.BookInput) (*models.Book, error)
	Update(ctx context.Context, id int64, in models.BookInput) (*models.Book, error)
	Delete(ctx context.Context, id int64) error
}

type Store struct {
	books  Books
	log    *logger.Logger
	browse *listquery.Machine[models.Book]

	mu       sync.RWMutex
	current  *models.Book
	featured []models.Book
	genres   []string
	loading  bool
	lastErr  string
}

type Option func(*config)

type config struct {
	log       *logger.Logger
	sequenced bool
	query     *listquery.Query
}

func WithLogger(l *logger.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithSequencing makes the browse list show only the latest request's result.
func WithSequencing() Option {
	return func(c *config) { c.sequenced = true }
}

func WithQuery(q listquery.Query) Option {
	return func(c *config) { c.query = &q }
}

func New(books Books, opts ...Option) *Store {
	cfg := config{log: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Store{
		books: books,
		log:   cfg.log.WithContext("component", "catalog"),
	}

	mopts := []listquery.Option[models.Book]{listquery.WithLogger[models.Book](s.log)}
	if cfg.sequenced {
		mopts = append(mopts, listquery.WithSequencing[models.Book]())
	}
	if cfg.query != nil {
		mopts = append(mopts, listquery.WithQuery[models.Book](*cfg.query))
	}
	s.browse = listquery.New(s.fetchPage, mopts...)
	return s
}

// FromClient builds a store over the client's books endpoints.
func FromClient(c *api.Client, opts ...Option) *Store {
	return New(c.Books, opts...)
}

func (s *Store) fetchPage(ctx context.Context, q listquery.Query) (listquery.Page[models.Book], error) {
	res, err := s.books.List(ctx, q.Params())
	if err != nil {
		return listquery.Page[models.Book]{}, err
	}
	return listquery.Page[models.Book]{Items: res.Books, Pagination: res.Pagination}, nil
}

// Browse is the filterable, paginated book list.
func (s *Store) Browse() *listquery.Machine[models.Book] {
	return s.browse
}

func (s *Store) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	s.begin()
	book, err := s.books.Get(ctx, id)
	if err != nil {
		s.fail(err, "Failed to fetch book")
		return nil, err
	}
	s.mu.Lock()
	s.current = book
	s.loading = false
	s.mu.Unlock()
	return book, nil
}

func (s *Store) FetchFeatured(ctx context.Context, limit int) ([]models.Book, error) {
	s.begin()
	books, err := s.books.Featured(ctx, limit)
	if err != nil {
		s.fail(err, "Failed to fetch featured books")
		return nil, err
	}
	s.mu.Lock()
	s.featured = books
	s.loading = false
	s.mu.Unlock()
	return books, nil
}

func (s *Store) FetchGenres(ctx context.Context) ([]string, error) {
	genres, err := s.books.Genres(ctx)
	if err != nil {
		s.log.Warn("genres_fetch_failed", "error", err.Error())
		return nil, err
	}
	s.mu.Lock()
	s.genres = genres
	s.mu.Unlock()
	return genres, nil
}

func (s *Store) BooksByAuthor(ctx context.Context, author string, p models.ListParams) (*models.BookListResponse, error) {
	s.begin()
	res, err := s.books.ByAuthor(ctx, author, p)
	if err != nil {
		s.fail(err, "Failed to fetch books by author")
		return nil, err
	}
	s.done()
	return res, nil
}

func (s *Store) CreateBook(ctx context.Context, in models.BookInput) (*models.Book, error) {
	s.begin()
	book, err := s.books.Create(ctx, in)
	if err != nil {
		s.fail(err, "Failed to create book")
		return nil, err
	}
	s.done()
	s.log.Info("book_created", "book_id", book.ID)
	return book, nil
}

// UpdateBook saves the edit and mirrors the server's copy into every view
// that shows the book.
func (s *Store) UpdateBook(ctx context.Context, id int64, in models.BookInput) (*models.Book, error) {
	s.begin()
	book, err := s.books.Update(ctx, id, in)
	if err != nil {
		s.fail(err, "Failed to update book")
		return nil, err
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		updated := *book
		s.current = &updated
	}
	for i := range s.featured {
		if s.featured[i].ID == id {
			s.featured[i] = *book
		}
	}
	s.loading = false
	s.mu.Unlock()

	s.browse.Patch(func(items []models.Book) []models.Book {
		for i := range items {
			if items[i].ID == id {
				items[i] = *book
			}
		}
		return items
	})
	s.log.Info("book_updated", "book_id", id)
	return book, nil
}

func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	s.begin()
	if err := s.books.Delete(ctx, id); err != nil {
		s.fail(err, "Failed to delete book")
		return err
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.featured = without(s.featured, id)
	s.loading = false
	s.mu.Unlock()

	s.browse.Patch(func(items []models.Book) []models.Book { return without(items, id) })
	s.log.Info("book_deleted", "book_id", id)
	return nil
}

func (s *Store) Current() *models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	b := *s.current
	return &b
}

func (s *Store) Featured() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Book(nil), s.featured...)
}

func (s *Store) Genres() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.genres...)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Store) done() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) fail(err error, fallback string) {
	msg := api.Message(err, fallback)
	s.mu.Lock()
	s.loading = false
	s.lastErr = msg
	s.mu.Unlock()
	s.log.Warn("catalog_request_failed", "error", msg)
}

func without(books []models.Book, id int64) []models.Book {
	out := books[:0]
	for _, b := range books {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
