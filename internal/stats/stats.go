// Package stats provides the aggregation helpers shared by layout strategies
// and the viability checker: rating averages, histograms and loop content.
// All functions are pure and never modify their input.
package stats

import (
	"strconv"

	"github.com/proofwall/proofwall-embed-go/internal/model"
)

// NotAvailable is displayed in place of an average when nothing is rated.
const NotAvailable = "N/A"

// AverageRating returns the mean rating over records that have one.
// Unrated records are excluded from the denominator. ok is false when no
// record is rated.
func AverageRating(records []model.Testimonial) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, r := range records {
		if r.Rating == nil {
			continue
		}
		sum += *r.Rating
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// FormatAverage renders an average with one decimal, or NotAvailable.
func FormatAverage(avg float64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

// RatedCount returns the number of records carrying a rating.
func RatedCount(records []model.Testimonial) int {
	n := 0
	for _, r := range records {
		if r.Rating != nil {
			n++
		}
	}
	return n
}

// HistogramBucket is the number of records at one exact rating value.
type HistogramBucket struct {
	Rating int     `json:"rating"`
	Count  int     `json:"count"`
	Ratio  float64 `json:"ratio"` // Count over rated records; 0 when nothing is rated
}

// RatingHistogram returns buckets for ratings 5 down to 1, in that order.
func RatingHistogram(records []model.Testimonial) []HistogramBucket {
	counts := [6]int{}
	total := 0
	for _, r := range records {
		if r.Rating == nil || *r.Rating < 1 || *r.Rating > 5 {
			continue
		}
		counts[*r.Rating]++
		total++
	}

	buckets := make([]HistogramBucket, 0, 5)
	for rating := 5; rating >= 1; rating-- {
		b := HistogramBucket{Rating: rating, Count: counts[rating]}
		if total > 0 {
			b.Ratio = float64(counts[rating]) / float64(total)
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// Loop returns a new slice holding records twice in order, the content of
// one seamless cycle of an infinitely scrolling strip.
func Loop(records []model.Testimonial) []model.Testimonial {
	out := make([]model.Testimonial, 0, 2*len(records))
	out = append(out, records...)
	out = append(out, records...)
	return out
}

// FilterVideos returns a new slice with the records that carry a video,
// in their original order.
func FilterVideos(records []model.Testimonial) []model.Testimonial {
	out := make([]model.Testimonial, 0, len(records))
	for _, r := range records {
		if r.HasVideo() {
			out = append(out, r)
		}
	}
	return out
}

// CountVideos returns the number of records carrying a video.
func CountVideos(records []model.Testimonial) int {
	n := 0
	for _, r := range records {
		if r.HasVideo() {
			n++
		}
	}
	return n
}
