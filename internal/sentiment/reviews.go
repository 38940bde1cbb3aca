package sentiment

import "math/rand"

var (
	praiseReviews = []string{
		"Amazing book with great characters and plot!",
		"Couldn't put it down, highly recommend!",
		"Beautiful writing and engaging story.",
		"One of the best books I've ever read.",
		"Fantastic storytelling and character development.",
		"A masterpiece that everyone should read.",
		"Brilliant and thought-provoking narrative.",
		"Exceptional book with perfect pacing.",
	}
	criticalReviews = []string{
		"Disappointing story with weak characters.",
		"Too slow and boring, couldn't finish it.",
		"Poor writing and unengaging plot.",
		"Not worth the time or money.",
		"Confusing storyline and flat characters.",
		"Expected much more from this book.",
		"Poorly executed with many plot holes.",
		"Waste of time, very disappointing.",
	}
	mixedReviews = []string{
		"Decent book, nothing special but okay.",
		"Average story with some good moments.",
		"It was fine, had its ups and downs.",
		"Not bad but not great either.",
		"Readable but forgettable.",
		"Good enough for a casual read.",
	}
)

// SyntheticReviews draws one review per rating: the praise pool for ratings of
// 4.0 and above, the critical pool for 2.5 and below, the mixed pool otherwise
// (including unknown ratings). The same seed yields the same reviews.
func SyntheticReviews(ratings []float64, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))

	reviews := make([]string, len(ratings))
	for i, r := range ratings {
		var pool []string
		switch {
		case r >= 4.0:
			pool = praiseReviews
		case r <= 2.5:
			pool = criticalReviews
		default:
			pool = mixedReviews
		}
		reviews[i] = pool[rng.Intn(len(pool))]
	}
	return reviews
}
