package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/binhbb2204/bookhub/internal/catalog"
	"github.com/binhbb2204/bookhub/internal/listquery"
	"github.com/binhbb2204/bookhub/internal/review"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/spf13/cobra"
)

var (
	bookSearch    string
	bookGenre     string
	bookMinRating int
	bookSort      string
	bookPage      int
	bookLimit     int

	featuredLimit int
	authorPage    int
	authorLimit   int
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse the book catalog",
	Long:  `Search, filter and view books in the BookHub catalog.`,
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Long: `List books with optional search, genre and rating filters.

Sort keys: created_at-desc, title-asc, title-desc, author-asc, author-desc,
average_rating-desc, average_rating-asc, review_count-desc,
published_year-desc, published_year-asc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		q := listquery.DefaultQuery()
		q.PageSize = a.Config.Display.PageSize
		if bookLimit > 0 {
			q.PageSize = bookLimit
		}
		if bookPage > 0 {
			q.Page = bookPage
		}
		q.SearchTerm = strings.TrimSpace(bookSearch)
		q.GenreFilter = strings.TrimSpace(bookGenre)
		if bookMinRating < 0 || bookMinRating > models.MaxRating {
			return fmt.Errorf("--min-rating must be between 0 and %d", models.MaxRating)
		}
		q.MinRating = bookMinRating
		if bookSort != "" {
			opt, err := listquery.ParseSort(bookSort)
			if err != nil {
				return err
			}
			q.SortField, q.SortDirection = opt.Field, opt.Direction
		}

		browse := newCatalog(a).Browse()
		browse.Apply(cmd.Context(), q)
		browse.Wait()

		snap := browse.Snapshot()
		if snap.State == listquery.Failed {
			return fail(snap.Err, "Failed to load books")
		}
		if len(snap.Items) == 0 {
			if snap.Query.HasActiveFilters() {
				outln("No books match your filters.")
			} else {
				outln("The catalog is empty.")
			}
			return nil
		}
		printBookTable(snap.Items)
		printPagination(snap.Pagination)
		if avg, ok := review.MeanBookRating(snap.Items); ok {
			outf("Average rating on this page: %.1f\n", avg)
		}
		return nil
	},
}

var booksShowCmd = &cobra.Command{
	Use:   "show <book-id>",
	Short: "Show a book with its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, err := parseID(args[0], "book")
		if err != nil {
			return err
		}

		book, err := newCatalog(a).GetBook(cmd.Context(), id)
		if err != nil {
			return fail(err, "Failed to load book")
		}
		printBookDetail(book)

		res, err := a.Client.Reviews.ForBook(cmd.Context(), id, models.ListParams{Limit: 5})
		if err != nil {
			a.Log.Warn("book_reviews_failed", "book_id", id, "error", err.Error())
			return nil
		}
		outf("\nReviews (%d)\n", res.Pagination.Total)
		printReviews(res.Reviews, false)
		if res.Pagination.HasNext {
			outf("\nMore: bookhub reviews list %d\n", id)
		}
		if u, ok := storedUser(a); ok {
			if mine := review.FromClient(a.Client, a.Log).Existing(cmd.Context(), id, u.ID); mine != nil {
				outf("\nYour rating: %s\n", review.Stars(float64(mine.Rating)))
			}
		}
		return nil
	},
}

var booksFeaturedCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show featured books",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		books, err := newCatalog(a).FetchFeatured(cmd.Context(), featuredLimit)
		if err != nil {
			return fail(err, "Failed to load featured books")
		}
		if len(books) == 0 {
			outln("No featured books yet.")
			return nil
		}
		printBookTable(books)
		return nil
	},
}

var booksGenresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the genres in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		genres, err := newCatalog(appFrom(cmd)).FetchGenres(cmd.Context())
		if err != nil {
			return fail(err, "Failed to load genres")
		}
		for _, g := range genres {
			outln(g)
		}
		return nil
	},
}

var booksAuthorCmd = &cobra.Command{
	Use:   "author <name>",
	Short: "List books by an author",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		author := strings.Join(args, " ")
		res, err := newCatalog(a).BooksByAuthor(cmd.Context(), author, models.ListParams{Page: authorPage, Limit: authorLimit})
		if err != nil {
			return fail(err, "Failed to load books")
		}
		if len(res.Books) == 0 {
			outf("No books found by %s\n", author)
			return nil
		}
		printBookTable(res.Books)
		printPagination(res.Pagination)
		return nil
	},
}

func init() {
	booksListCmd.Flags().StringVarP(&bookSearch, "search", "s", "", "Search title, author or description")
	booksListCmd.Flags().StringVarP(&bookGenre, "genre", "g", "", "Only show this genre")
	booksListCmd.Flags().IntVar(&bookMinRating, "min-rating", 0, "Minimum average rating (1-5)")
	booksListCmd.Flags().StringVar(&bookSort, "sort", "", "Sort key, e.g. title-asc")
	booksListCmd.Flags().IntVarP(&bookPage, "page", "p", 1, "Page number")
	booksListCmd.Flags().IntVarP(&bookLimit, "limit", "l", 0, "Books per page (default from config)")

	booksFeaturedCmd.Flags().IntVarP(&featuredLimit, "limit", "l", 6, "Number of books")

	booksAuthorCmd.Flags().IntVarP(&authorPage, "page", "p", 1, "Page number")
	booksAuthorCmd.Flags().IntVarP(&authorLimit, "limit", "l", 0, "Books per page")

	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksShowCmd)
	booksCmd.AddCommand(booksFeaturedCmd)
	booksCmd.AddCommand(booksGenresCmd)
	booksCmd.AddCommand(booksAuthorCmd)
}

func newCatalog(a *App) *catalog.Store {
	opts := []catalog.Option{catalog.WithLogger(a.Log)}
	if a.Config.Display.Sequenced {
		opts = append(opts, catalog.WithSequencing())
	}
	return catalog.FromClient(a.Client, opts...)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}
