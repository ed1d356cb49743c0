package review

import (
	"fmt"
	"strings"

	"github.com/binhbb2204/bookhub/pkg/models"
)

// Mean averages the rated entries, skipping nil. ok is false when nothing is
// rated.
func Mean(ratings []*float64) (mean float64, ok bool) {
	var sum float64
	n := 0
	for _, r := range ratings {
		if r == nil {
			continue
		}
		sum += *r
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MeanBookRating averages the books that have at least one review.
func MeanBookRating(books []models.Book) (float64, bool) {
	ratings := make([]*float64, len(books))
	for i := range books {
		ratings[i] = books[i].AverageRating
	}
	return Mean(ratings)
}

// Summarize builds the rating summary of a set of reviews of one book.
func Summarize(bookID int64, reviews []models.Review) models.RatingSummary {
	sum := models.RatingSummary{
		BookID:       bookID,
		Distribution: make(map[int]int, models.MaxRating),
	}
	for r := models.MinRating; r <= models.MaxRating; r++ {
		sum.Distribution[r] = 0
	}
	total := 0
	for _, rv := range reviews {
		if rv.Rating < models.MinRating || rv.Rating > models.MaxRating {
			continue
		}
		sum.Distribution[rv.Rating]++
		sum.ReviewCount++
		total += rv.Rating
	}
	if sum.ReviewCount > 0 {
		avg := float64(total) / float64(sum.ReviewCount)
		sum.AverageRating = &avg
	}
	return sum
}

// FormatRating renders an average with one decimal, or "No ratings".
func FormatRating(avg *float64) string {
	if avg == nil {
		return "No ratings"
	}
	return fmt.Sprintf("%.1f", *avg)
}

// Stars draws a 5-star bar rounded to the nearest whole star.
func Stars(avg float64) string {
	full := int(avg + 0.5)
	if full < 0 {
		full = 0
	}
	if full > models.MaxRating {
		full = models.MaxRating
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", models.MaxRating-full)
}
