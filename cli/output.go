package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/review"
	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/dustin/go-humanize"
)

var output io.Writer = os.Stdout

func setOutput(w io.Writer) { output = w }

func outf(format string, a ...any) { fmt.Fprintf(output, format, a...) }

func outln(a ...any) { fmt.Fprintln(output, a...) }

func printSuccess(msg string) { outf("✓ %s\n", msg) }

func printError(msg string) { outf("✗ %s\n", msg) }

func printInfo(msg string) { outf("ℹ %s\n", msg) }

// fail prints err as an error banner and returns it. Validation failures
// are listed one field per line.
func fail(err error, fallback string) error {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		printError(fallback)
		fields := make([]string, 0, len(verrs))
		for f := range verrs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			outf("  %s: %s\n", f, verrs[f])
		}
		return err
	}
	printError(fmt.Sprintf("%s: %s", fallback, api.Message(err, fallback)))
	return err
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printBookTable(books []models.Book) {
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tGENRE\tYEAR\tRATING\tREVIEWS")
	for _, b := range books {
		year := ""
		if b.PublishedYear > 0 {
			year = fmt.Sprint(b.PublishedYear)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			b.ID, truncate(b.Title, 40), truncate(b.Author, 24), b.Genre, year, review.FormatRating(b.AverageRating), b.ReviewCount)
	}
	w.Flush()
}

func printBookDetail(b *models.Book) {
	outf("%s\n", b.Title)
	outf("%s\n", strings.Repeat("-", len([]rune(b.Title))))
	outf("Author:    %s\n", b.Author)
	if b.Genre != "" {
		outf("Genre:     %s\n", b.Genre)
	}
	if b.PublishedYear > 0 {
		outf("Published: %d\n", b.PublishedYear)
	}
	if b.ISBN != "" {
		outf("ISBN:      %s\n", b.ISBN)
	}
	if b.AverageRating != nil {
		outf("Rating:    %s %s (%d reviews)\n", review.Stars(*b.AverageRating), review.FormatRating(b.AverageRating), b.ReviewCount)
	} else {
		outf("Rating:    No ratings yet\n")
	}
	if b.Description != "" {
		outf("\n%s\n", b.Description)
	}
}

func printReviews(reviews []models.Review, showBook bool) {
	if len(reviews) == 0 {
		outln("No reviews yet.")
		return
	}
	for _, r := range reviews {
		who := r.Username
		if showBook {
			who = r.BookTitle
		}
		outf("%s  %s  (%s, review #%d)\n", review.Stars(float64(r.Rating)), who, humanize.Time(r.CreatedAt), r.ID)
		if r.Comment != "" {
			outf("    %s\n", r.Comment)
		}
	}
}

func printPagination(p models.PaginationMeta) {
	if p.TotalPages <= 1 {
		outf("\n%d result(s)\n", p.Total)
		return
	}
	outf("\nPage %d of %d (%d results)", p.Page, p.TotalPages, p.Total)
	if p.HasNext {
		outf(" - next: --page %d", p.Page+1)
	}
	outln()
}
