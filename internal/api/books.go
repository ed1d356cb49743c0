package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
)

const DefaultFeaturedLimit = 6

type BooksAPI struct {
	c *Client
}

func (b *BooksAPI) List(ctx context.Context, p models.ListParams) (*models.BookListResponse, error) {
	var res models.BookListResponse
	if err := b.c.get(ctx, "/books", p.Values(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *BooksAPI) Search(ctx context.Context, term string, p models.ListParams) (*models.BookListResponse, error) {
	p.Search = strings.TrimSpace(term)
	return b.List(ctx, p)
}

func (b *BooksAPI) ByGenre(ctx context.Context, genre string, p models.ListParams) (*models.BookListResponse, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, fmt.Errorf("Genre is required")
	}
	p.Genre = genre
	return b.List(ctx, p)
}

func (b *BooksAPI) ByAuthor(ctx context.Context, author string, p models.ListParams) (*models.BookListResponse, error) {
	if strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("Author is required")
	}
	var res models.BookListResponse
	if err := b.c.get(ctx, "/books/author/"+url.PathEscape(author), p.Values(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *BooksAPI) Get(ctx context.Context, id int64) (*models.Book, error) {
	if err := requireID(id, "Book"); err != nil {
		return nil, err
	}
	var book models.Book
	if err := b.c.get(ctx, fmt.Sprintf("/books/%d", id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (b *BooksAPI) Featured(ctx context.Context, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	var res models.BookListResponse
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := b.c.get(ctx, "/books/featured", q, &res); err != nil {
		return nil, err
	}
	return res.Books, nil
}

func (b *BooksAPI) Genres(ctx context.Context) ([]string, error) {
	var res models.GenresResponse
	if err := b.c.get(ctx, "/books/genres", nil, &res); err != nil {
		return nil, err
	}
	return res.Genres, nil
}

func (b *BooksAPI) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	in = cleanBook(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var res models.BookResponse
	if err := b.c.post(ctx, "/books", in, &res); err != nil {
		return nil, err
	}
	if res.Book == nil {
		return nil, ErrInvalidResponse
	}
	return res.Book, nil
}

func (b *BooksAPI) Update(ctx context.Context, id int64, in models.BookInput) (*models.Book, error) {
	if err := requireID(id, "Book"); err != nil {
		return nil, err
	}
	in = cleanBook(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var res models.BookResponse
	if err := b.c.put(ctx, fmt.Sprintf("/books/%d", id), in, &res); err != nil {
		return nil, err
	}
	if res.Book == nil {
		return nil, ErrInvalidResponse
	}
	return res.Book, nil
}

func (b *BooksAPI) Delete(ctx context.Context, id int64) error {
	if err := requireID(id, "Book"); err != nil {
		return err
	}
	return b.c.delete(ctx, fmt.Sprintf("/books/%d", id), nil)
}

func cleanBook(in models.BookInput) models.BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Description = strings.TrimSpace(in.Description)
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Genre = strings.TrimSpace(in.Genre)
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
	return in
}
