package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/binhbb2204/bookhub/internal/review"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/spf13/cobra"
)

var (
	reviewRating  int
	reviewComment string
	reviewPage    int
	reviewLimit   int
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and write book reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list <book-id>",
	Short: "List reviews of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, err := parseID(args[0], "book")
		if err != nil {
			return err
		}
		res, err := a.Client.Reviews.ForBook(cmd.Context(), id, models.ListParams{Page: reviewPage, Limit: reviewLimit})
		if err != nil {
			return fail(err, "Failed to load reviews")
		}
		printReviews(res.Reviews, false)
		if len(res.Reviews) > 0 {
			printPagination(res.Pagination)
		}
		return nil
	},
}

var reviewsSummaryCmd = &cobra.Command{
	Use:   "summary <book-id>",
	Short: "Show the rating breakdown of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, err := parseID(args[0], "book")
		if err != nil {
			return err
		}
		s, err := a.Client.Reviews.Summary(cmd.Context(), id)
		if err != nil {
			return fail(err, "Failed to load rating summary")
		}
		printSummary(s)
		return nil
	},
}

var reviewsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		reviews, err := appFrom(cmd).Client.Reviews.Recent(cmd.Context(), reviewLimit)
		if err != nil {
			return fail(err, "Failed to load reviews")
		}
		printReviews(reviews, true)
		return nil
	},
}

var reviewsWriteCmd = &cobra.Command{
	Use:         "write <book-id>",
	Short:       "Rate and review a book",
	Long:        `Write a review, or replace your existing review of the book.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, err := parseID(args[0], "book")
		if err != nil {
			return err
		}
		res, err := review.FromClient(a.Client, a.Log).Submit(cmd.Context(), id, a.Session.User().ID, review.Input{
			Rating:  reviewRating,
			Comment: reviewComment,
		})
		if err != nil {
			return fail(err, "Failed to submit review")
		}
		if res.Created {
			printSuccess("Review submitted!")
		} else {
			printSuccess("Review updated!")
		}
		outf("%s  %s\n", review.Stars(float64(res.Review.Rating)), res.Review.Comment)
		return nil
	},
}

var reviewsDeleteCmd = &cobra.Command{
	Use:         "delete <review-id>",
	Short:       "Delete one of your reviews",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		id, err := parseID(args[0], "review")
		if err != nil {
			return err
		}
		if err := a.Client.Reviews.Delete(cmd.Context(), id); err != nil {
			return fail(err, "Failed to delete review")
		}
		printSuccess(fmt.Sprintf("Review #%d deleted", id))
		return nil
	},
}

var reviewsMineCmd = &cobra.Command{
	Use:         "mine",
	Short:       "List your reviews",
	Annotations: map[string]string{annotationGuard: "auth"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		res, err := a.Client.Reviews.ForUser(cmd.Context(), a.Session.User().ID, models.ListParams{Page: reviewPage, Limit: reviewLimit})
		if err != nil {
			return fail(err, "Failed to load your reviews")
		}
		if len(res.Reviews) == 0 {
			outln("You have not reviewed any books yet.")
			return nil
		}
		printReviews(res.Reviews, true)
		printPagination(res.Pagination)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{reviewsListCmd, reviewsMineCmd} {
		c.Flags().IntVarP(&reviewPage, "page", "p", 1, "Page number")
		c.Flags().IntVarP(&reviewLimit, "limit", "l", 10, "Reviews per page")
	}
	reviewsRecentCmd.Flags().IntVarP(&reviewLimit, "limit", "l", 10, "Number of reviews")

	reviewsWriteCmd.Flags().IntVarP(&reviewRating, "rating", "r", 0, "Rating from 1 to 5")
	reviewsWriteCmd.Flags().StringVarP(&reviewComment, "comment", "c", "", "Review text")
	reviewsWriteCmd.MarkFlagRequired("rating")

	reviewsCmd.AddCommand(reviewsListCmd)
	reviewsCmd.AddCommand(reviewsSummaryCmd)
	reviewsCmd.AddCommand(reviewsRecentCmd)
	reviewsCmd.AddCommand(reviewsWriteCmd)
	reviewsCmd.AddCommand(reviewsDeleteCmd)
	reviewsCmd.AddCommand(reviewsMineCmd)
}

func printSummary(s *models.RatingSummary) {
	if s.ReviewCount == 0 || s.AverageRating == nil {
		outln("No ratings yet.")
		return
	}
	outf("Average: %s %s (%d reviews)\n", review.Stars(*s.AverageRating), review.FormatRating(s.AverageRating), s.ReviewCount)
	stars := make([]int, 0, len(s.Distribution))
	for k := range s.Distribution {
		stars = append(stars, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stars)))
	for _, k := range stars {
		n := s.Distribution[k]
		outf("  %d★ %-20s %d\n", k, strings.Repeat("#", n*20/s.ReviewCount), n)
	}
}
