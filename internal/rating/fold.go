package rating

// Rating bounds accepted for a review.
const (
	Min = 1
	Max = 5
)

// Fold applies one new rating to a watchlist item's aggregate. The first
// rating becomes the average; every later rating is averaged pairwise with
// the running value, so recent ratings weigh more than old ones. This is the
// historical behaviour of the system and is kept as-is; it is not an
// arithmetic mean.
func Fold(avg float64, count int64, r int) (float64, int64) {
	if count == 0 {
		return float64(r), 1
	}
	return (avg + float64(r)) / 2, count + 1
}
