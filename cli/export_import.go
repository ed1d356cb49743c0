package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/spf13/cobra"
)

const exportPageSize = 100

var (
	exportFormat string
	exportOutput string
)

var bookCSVHeader = []string{"title", "author", "genre", "published_year", "isbn", "description", "cover_image_url"}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data",
	Long:  `Export your reviews or the book catalog to JSON or CSV.`,
}

var exportReviewsCmd = &cobra.Command{
	Use:         "reviews",
	Short:       "Export your reviews",
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		userID := a.Session.User().ID

		var all []models.Review
		err := eachPage(func(page int) (models.PaginationMeta, error) {
			res, err := a.Client.Reviews.ForUser(cmd.Context(), userID, models.ListParams{Page: page, Limit: exportPageSize})
			if err != nil {
				return models.PaginationMeta{}, err
			}
			all = append(all, res.Reviews...)
			return res.Pagination, nil
		})
		if err != nil {
			return fail(err, "Failed to fetch reviews")
		}

		var buf bytes.Buffer
		switch strings.ToLower(exportFormat) {
		case "json":
			enc := json.NewEncoder(&buf)
			enc.SetIndent("", "  ")
			if err := enc.Encode(all); err != nil {
				return err
			}
		case "csv":
			w := csv.NewWriter(&buf)
			w.Write([]string{"review_id", "book_id", "book_title", "rating", "comment", "created_at"})
			for _, r := range all {
				w.Write([]string{
					strconv.FormatInt(r.ID, 10),
					strconv.FormatInt(r.BookID, 10),
					r.BookTitle,
					strconv.Itoa(r.Rating),
					r.Comment,
					r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				})
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s", exportFormat)
		}
		return writeExport(buf.Bytes(), fmt.Sprintf("%d review(s)", len(all)))
	},
}

var exportBooksCmd = &cobra.Command{
	Use:   "books",
	Short: "Export the book catalog",
	Long:  `Export every book in the catalog. The CSV format can be read back by 'bookhub admin books import'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		books, err := allBooks(cmd.Context(), a.Client)
		if err != nil {
			return fail(err, "Failed to fetch books")
		}

		var buf bytes.Buffer
		switch strings.ToLower(exportFormat) {
		case "json":
			enc := json.NewEncoder(&buf)
			enc.SetIndent("", "  ")
			if err := enc.Encode(books); err != nil {
				return err
			}
		case "csv":
			if err := writeBookCSV(&buf, books); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s", exportFormat)
		}
		return writeExport(buf.Bytes(), fmt.Sprintf("%d book(s)", len(books)))
	},
}

func init() {
	for _, c := range []*cobra.Command{exportReviewsCmd, exportBooksCmd} {
		c.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format (json, csv)")
		c.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default stdout)")
		exportCmd.AddCommand(c)
	}
}

// eachPage calls fetch for page 1, 2, ... until the server reports no next page.
func eachPage(fetch func(page int) (models.PaginationMeta, error)) error {
	for page := 1; ; page++ {
		meta, err := fetch(page)
		if err != nil {
			return err
		}
		if !meta.HasNext {
			return nil
		}
	}
}

func allBooks(ctx context.Context, c *api.Client) ([]models.Book, error) {
	var all []models.Book
	err := eachPage(func(page int) (models.PaginationMeta, error) {
		res, err := c.Books.List(ctx, models.ListParams{Page: page, Limit: exportPageSize, SortBy: "title", SortOrder: "asc"})
		if err != nil {
			return models.PaginationMeta{}, err
		}
		all = append(all, res.Books...)
		return res.Pagination, nil
	})
	return all, err
}

func writeExport(data []byte, what string) error {
	if exportOutput == "" {
		_, err := output.Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printSuccess(fmt.Sprintf("Exported %s to %s", what, exportOutput))
	return nil
}

func writeBookCSV(w io.Writer, books []models.Book) error {
	cw := csv.NewWriter(w)
	cw.Write(bookCSVHeader)
	for _, b := range books {
		year := ""
		if b.PublishedYear > 0 {
			year = strconv.Itoa(b.PublishedYear)
		}
		cw.Write([]string{b.Title, b.Author, b.Genre, year, b.ISBN, b.Description, b.CoverImageURL})
	}
	cw.Flush()
	return cw.Error()
}

// readBookCSV parses rows keyed by the header line. Unknown columns are
// ignored and title and author are required.
func readBookCSV(r io.Reader) ([]models.BookInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"title", "author"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("CSV is missing the %q column", required)
		}
	}
	cr.FieldsPerRecord = len(header)

	get := func(row []string, name string) string {
		if i, ok := col[name]; ok {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var books []models.BookInput
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		in := models.BookInput{
			Title:         get(row, "title"),
			Author:        get(row, "author"),
			Genre:         get(row, "genre"),
			ISBN:          get(row, "isbn"),
			Description:   get(row, "description"),
			CoverImageURL: get(row, "cover_image_url"),
		}
		if y := get(row, "published_year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid published_year %q", line, y)
			}
			in.PublishedYear = year
		}
		books = append(books, in)
	}
	return books, nil
}
