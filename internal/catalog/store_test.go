package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/listquery"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBooks struct {
	mu      sync.Mutex
	books   map[int64]models.Book
	lists   []models.ListParams
	failGet error
}

func newFakeBooks(books ...models.Book) *fakeBooks {
	f := &fakeBooks{books: make(map[int64]models.Book)}
	for _, b := range books {
		f.books[b.ID] = b
	}
	return f
}

func (f *fakeBooks) all() []models.Book {
	out := make([]models.Book, 0, len(f.books))
	for id := int64(1); id <= int64(len(f.books))+10; id++ {
		if b, ok := f.books[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeBooks) List(ctx context.Context, p models.ListParams) (*models.BookListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, p)
	books := f.all()
	return &models.BookListResponse{Books: books, Pagination: models.NewPaginationMeta(p.Page, p.Limit, len(books))}, nil
}

func (f *fakeBooks) Get(ctx context.Context, id int64) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	b, ok := f.books[id]
	if !ok {
		return nil, &api.Error{StatusCode: 404, Message: "Book not found"}
	}
	return &b, nil
}

func (f *fakeBooks) Featured(ctx context.Context, limit int) ([]models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	books := f.all()
	if len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

func (f *fakeBooks) Genres(ctx context.Context) ([]string, error) {
	return []string{"Fantasy", "Mystery"}, nil
}

func (f *fakeBooks) ByAuthor(ctx context.Context, author string, p models.ListParams) (*models.BookListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Book
	for _, b := range f.all() {
		if b.Author == author {
			out = append(out, b)
		}
	}
	return &models.BookListResponse{Books: out}, nil
}

func (f *fakeBooks) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := models.Book{ID: int64(len(f.books) + 1), Title: in.Title, Author: in.Author}
	f.books[b.ID] = b
	return &b, nil
}

func (f *fakeBooks) Update(ctx context.Context, id int64, in models.BookInput) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.books[id]
	b.Title, b.Author, b.Genre = in.Title, in.Author, in.Genre
	f.books[id] = b
	return &b, nil
}

func (f *fakeBooks) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.books, id)
	return nil
}

func seeded() *fakeBooks {
	return newFakeBooks(
		models.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"},
		models.Book{ID: 2, Title: "Emma", Author: "Jane Austen", Genre: "Romance"},
		models.Book{ID: 3, Title: "Persuasion", Author: "Jane Austen", Genre: "Romance"},
	)
}

func TestBrowse_UsesQueryParams(t *testing.T) {
	books := seeded()
	s := New(books, WithSequencing())
	ctx := context.Background()

	s.Browse().SetGenre(ctx, "Romance")
	s.Browse().Wait()

	snap := s.Browse().Snapshot()
	assert.Equal(t, listquery.Loaded, snap.State)
	assert.Len(t, snap.Items, 3)
	require.Len(t, books.lists, 1)
	assert.Equal(t, "Romance", books.lists[0].Genre)
	assert.Equal(t, listquery.DefaultPageSize, books.lists[0].Limit)
}

func TestUpdateBook_MirrorsIntoViews(t *testing.T) {
	s := New(seeded())
	ctx := context.Background()

	_, err := s.GetBook(ctx, 2)
	require.NoError(t, err)
	_, err = s.FetchFeatured(ctx, 6)
	require.NoError(t, err)
	s.Browse().Refresh(ctx)
	s.Browse().Wait()

	_, err = s.UpdateBook(ctx, 2, models.BookInput{Title: "Emma (Annotated)", Author: "Jane Austen"})
	require.NoError(t, err)

	assert.Equal(t, "Emma (Annotated)", s.Current().Title)
	assert.Equal(t, "Emma (Annotated)", s.Featured()[1].Title)
	assert.Equal(t, "Emma (Annotated)", s.Browse().Snapshot().Items[1].Title)
}

func TestDeleteBook_RemovesFromViews(t *testing.T) {
	s := New(seeded())
	ctx := context.Background()

	_, err := s.GetBook(ctx, 1)
	require.NoError(t, err)
	_, err = s.FetchFeatured(ctx, 6)
	require.NoError(t, err)
	s.Browse().Refresh(ctx)
	s.Browse().Wait()

	require.NoError(t, s.DeleteBook(ctx, 1))

	assert.Nil(t, s.Current())
	assert.Len(t, s.Featured(), 2)
	for _, b := range s.Browse().Snapshot().Items {
		assert.NotEqual(t, int64(1), b.ID)
	}
}

func TestGetBook_FailureRecordsMessage(t *testing.T) {
	s := New(seeded())

	_, err := s.GetBook(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, "Book not found", s.Err())
	assert.False(t, s.Loading())
}

func TestBooksByAuthorAndGenres(t *testing.T) {
	s := New(seeded())
	ctx := context.Background()

	res, err := s.BooksByAuthor(ctx, "Jane Austen", models.ListParams{})
	require.NoError(t, err)
	assert.Len(t, res.Books, 2)

	genres, err := s.FetchGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, genres, s.Genres())
}
