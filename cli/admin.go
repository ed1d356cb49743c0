package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/binhbb2204/bookhub/internal/api"
	"github.com/binhbb2204/bookhub/internal/review"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const importWorkers = 4

var (
	bookInput  models.BookInput
	importFile string
	importDry  bool
	userPage   int
	userLimit  int
	userRole   string
)

var adminCmd = &cobra.Command{
	Use:         "admin",
	Short:       "Administration commands",
	Long:        `Manage books and users. Requires an admin account.`,
	Annotations: map[string]string{annotationGuard: "admin"},
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show catalog statistics and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := appFrom(cmd).Client.Admin.Dashboard(cmd.Context())
		if err != nil {
			return fail(err, "Failed to load dashboard")
		}
		outln("Dashboard")
		outln("---------")
		outf("Books:    %d\n", d.Stats.TotalBooks)
		outf("Users:    %d\n", d.Stats.TotalUsers)
		outf("Reviews:  %d\n", d.Stats.TotalReviews)
		if d.Stats.TotalReviews > 0 {
			avg := d.Stats.AverageRating
			outf("Average:  %s\n", review.FormatRating(&avg))
		}
		outln("\nRecently added books:")
		if len(d.RecentBooks) == 0 {
			outln("  none")
		} else {
			printBookTable(d.RecentBooks)
		}
		outln("\nRecent reviews:")
		printReviews(d.RecentReviews, true)
		return nil
	},
}

var adminBooksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage the book catalog",
}

var adminBooksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book",
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := newCatalog(appFrom(cmd)).CreateBook(cmd.Context(), bookInput)
		if err != nil {
			return fail(err, "Failed to create book")
		}
		printSuccess(fmt.Sprintf("Book #%d created: %s", book.ID, book.Title))
		return nil
	},
}

var adminBooksEditCmd = &cobra.Command{
	Use:   "edit <book-id>",
	Short: "Edit a book",
	Long:  `Update a book. Only the flags you pass are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "book")
		if err != nil {
			return err
		}
		store := newCatalog(appFrom(cmd))
		current, err := store.GetBook(cmd.Context(), id)
		if err != nil {
			return fail(err, "Failed to load book")
		}
		in := mergeBookFlags(cmd.Flags(), current)
		book, err := store.UpdateBook(cmd.Context(), id, in)
		if err != nil {
			return fail(err, "Failed to update book")
		}
		printSuccess(fmt.Sprintf("Book #%d updated", book.ID))
		printBookDetail(book)
		return nil
	},
}

var adminBooksDeleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete a book and its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "book")
		if err != nil {
			return err
		}
		if err := newCatalog(appFrom(cmd)).DeleteBook(cmd.Context(), id); err != nil {
			return fail(err, "Failed to delete book")
		}
		printSuccess(fmt.Sprintf("Book #%d deleted", id))
		return nil
	},
}

var adminBooksImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import books from a CSV file",
	Long: `Create one book per CSV row. The header line names the columns:
title, author, genre, published_year, isbn, description, cover_image_url.
Title and author are required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		books, err := readBookCSV(f)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", importFile, err)
		}
		if importDry {
			printInfo(fmt.Sprintf("%d book(s) would be imported", len(books)))
			return nil
		}

		a := appFrom(cmd)
		store := newCatalog(a)
		var (
			mu       sync.Mutex
			created  int
			failures []string
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(importWorkers)
		for i, in := range books {
			g.Go(func() error {
				_, err := store.CreateBook(ctx, in)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, fmt.Sprintf("row %d (%s): %s", i+2, in.Title, api.Message(err, "create failed")))
					return nil
				}
				created++
				return nil
			})
		}
		g.Wait()

		printSuccess(fmt.Sprintf("Imported %d of %d books", created, len(books)))
		for _, f := range failures {
			printError(f)
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d row(s) failed", len(failures))
		}
		return nil
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := appFrom(cmd).Client.Users.List(cmd.Context(), models.ListParams{Page: userPage, Limit: userLimit, Role: userRole})
		if err != nil {
			return fail(err, "Failed to load users")
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tJOINED")
		for _, u := range res.Users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format("2006-01-02"))
		}
		w.Flush()
		printPagination(res.Pagination)
		return nil
	},
}

var adminUsersRoleCmd = &cobra.Command{
	Use:       "role <user-id> <user|admin>",
	Short:     "Change a user's role",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{models.RoleUser, models.RoleAdmin},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "user")
		if err != nil {
			return err
		}
		u, err := appFrom(cmd).Client.Users.UpdateRole(cmd.Context(), id, strings.ToLower(args[1]))
		if err != nil {
			return fail(err, "Failed to update role")
		}
		printSuccess(fmt.Sprintf("%s is now %s", u.Username, u.Role))
		return nil
	},
}

var adminUsersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user and their reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "user")
		if err != nil {
			return err
		}
		if err := appFrom(cmd).Client.Users.Delete(cmd.Context(), id); err != nil {
			return fail(err, "Failed to delete user")
		}
		printSuccess(fmt.Sprintf("User #%d deleted", id))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{adminBooksAddCmd, adminBooksEditCmd} {
		c.Flags().StringVar(&bookInput.Title, "title", "", "Title")
		c.Flags().StringVar(&bookInput.Author, "author", "", "Author")
		c.Flags().StringVar(&bookInput.Genre, "genre", "", "Genre")
		c.Flags().IntVar(&bookInput.PublishedYear, "year", 0, "Year of publication")
		c.Flags().StringVar(&bookInput.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
		c.Flags().StringVar(&bookInput.Description, "description", "", "Description")
		c.Flags().StringVar(&bookInput.CoverImageURL, "cover", "", "Cover image URL")
	}
	adminBooksAddCmd.MarkFlagRequired("title")
	adminBooksAddCmd.MarkFlagRequired("author")

	adminBooksImportCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to import")
	adminBooksImportCmd.Flags().BoolVar(&importDry, "dry-run", false, "Parse the file without creating books")
	adminBooksImportCmd.MarkFlagRequired("file")

	adminUsersListCmd.Flags().IntVarP(&userPage, "page", "p", 1, "Page number")
	adminUsersListCmd.Flags().IntVarP(&userLimit, "limit", "l", 20, "Users per page")
	adminUsersListCmd.Flags().StringVar(&userRole, "role", "", "Only show this role")

	adminBooksCmd.AddCommand(adminBooksAddCmd, adminBooksEditCmd, adminBooksDeleteCmd, adminBooksImportCmd)
	adminUsersCmd.AddCommand(adminUsersListCmd, adminUsersRoleCmd, adminUsersDeleteCmd)
	adminCmd.AddCommand(adminDashboardCmd, adminBooksCmd, adminUsersCmd)
}

// mergeBookFlags starts from the stored book and applies the flags that were
// set on the command line.
func mergeBookFlags(flags *pflag.FlagSet, b *models.Book) models.BookInput {
	in := models.BookInput{
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		ISBN:          b.ISBN,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		CoverImageURL: b.CoverImageURL,
	}
	set := map[string]func(){
		"title":       func() { in.Title = bookInput.Title },
		"author":      func() { in.Author = bookInput.Author },
		"genre":       func() { in.Genre = bookInput.Genre },
		"year":        func() { in.PublishedYear = bookInput.PublishedYear },
		"isbn":        func() { in.ISBN = bookInput.ISBN },
		"description": func() { in.Description = bookInput.Description },
		"cover":       func() { in.CoverImageURL = bookInput.CoverImageURL },
	}
	flags.Visit(func(f *pflag.Flag) {
		if apply, ok := set[f.Name]; ok {
			apply()
		}
	})
	return in
}
