package sentiment

// Corpus is a labeled set of review sentences.
type Corpus struct {
	Positive []string
	Negative []string
}

// DefaultCorpus returns the curated 50/50 review corpus the learned scorer
// trains on when no other data is supplied.
func DefaultCorpus() Corpus {
	return Corpus{
		Positive: append([]string(nil), positiveReviews...),
		Negative: append([]string(nil), negativeReviews...),
	}
}

var positiveReviews = []string{
	"An absolute page-turner with a beautiful cover design.",
	"The storyline was intriguing and held my interest till the end.",
	"Great for fans of mystery and thrillers, well worth the price.",
	"The character development was impressive and relatable.",
	"A quick and enjoyable read with a simple yet elegant cover.",
	"Engaging language that flows naturally, making it hard to put down.",
	"This book has quickly become a favorite addition to my collection.",
	"Unique plot with unexpected twists - highly recommend!",
	"Loved the author's writing style, very approachable.",
	"An excellent choice for weekend reading.",
	"Hard to put down once you start - captivating storyline!",
	"The cover design is eye-catching and really sets the tone.",
	"The pacing was spot-on, no dragging sections.",
	"An underrated book that deserves more recognition.",
	"The character arcs were well thought out and rewarding.",
	"Highly recommend for fans of classic fiction.",
	"Brilliant writing - the language pulls you in.",
	"A refreshing story that breaks away from cliches.",
	"Beautiful language, almost poetic in parts.",
	"A thoughtful and insightful narrative.",
	"Characters felt like real people, loved it!",
	"The story had me guessing till the very end.",
	"This book is a great escape - fully engrossing!",
	"The storyline flows seamlessly from start to finish.",
	"Engaging from the first page.",
	"Definitely worth adding to your collection.",
	"A beautiful blend of suspense and romance.",
	"The language feels effortless and natural.",
	"A touching and heartfelt tale.",
	"An emotional rollercoaster.",
	"Surprisingly deep for a short book.",
	"A great story with memorable characters.",
	"Kept me engaged from start to finish.",
	"Outstanding character development.",
	"Perfect for a quiet evening read.",
	"The plot was well-crafted and engaging.",
	"Amazing storytelling and beautiful prose.",
	"Could not put it down, absolutely captivating.",
	"The ending was satisfying and well-executed.",
	"Excellent pacing throughout the entire book.",
	"Rich descriptions and vivid imagery.",
	"The dialogue felt authentic and natural.",
	"A masterpiece of modern literature.",
	"Incredibly moving and powerful story.",
	"The themes were explored with great depth.",
	"Brilliant character interactions.",
	"The plot twists were expertly executed.",
	"A truly unforgettable reading experience.",
	"The author's voice is distinctive and compelling.",
	"Perfect balance of action and emotion.",
}

var negativeReviews = []string{
	"The cover design was bland and didn't match the story.",
	"The storyline felt generic and lacked originality.",
	"The book is overpriced for the quality of content.",
	"Characters were flat and hard to connect with.",
	"A slow read with too many predictable moments.",
	"The writing style was overly complex and confusing.",
	"The cover was misleading about the book's content.",
	"The story didn't live up to the promising synopsis.",
	"The plot twists were obvious and didn't surprise me.",
	"The language felt too simplistic and unengaging.",
	"The book was much shorter than I expected for the price.",
	"Pacing was off, and the plot dragged in places.",
	"I found it difficult to relate to any of the characters.",
	"The storyline was confusing and hard to follow.",
	"Couldn't finish it - just didn't hold my interest.",
	"The story lacked depth and emotional engagement.",
	"The book's ending felt abrupt and unsatisfying.",
	"Not worth the price - a disappointing read.",
	"The language was overly simple, almost juvenile.",
	"The plot felt like a copy of several other books.",
	"Characters were one-dimensional and uninteresting.",
	"The cover design was the best part of the book.",
	"An okay read, but not something I'd recommend.",
	"The story felt forced and uninspired.",
	"Couldn't connect with the characters at all.",
	"Felt like a recycled plot with no new ideas.",
	"The language was stiff and hard to read.",
	"The book seemed rushed and lacked detail.",
	"Didn't live up to the author's previous works.",
	"Overall, a very forgettable read.",
	"The story had potential but was poorly executed.",
	"Not enough depth in the plot to keep me engaged.",
	"A disappointing read for the price.",
	"Characters felt unrealistic and underdeveloped.",
	"Expected more based on the reviews, but was let down.",
	"The book was too long for the story it had to tell.",
	"A poorly written story with a predictable ending.",
	"The plot twists felt forced and unnecessary.",
	"The language was dry and uninteresting.",
	"The pacing was uneven, and the story dragged.",
	"The book failed to hold my interest.",
	"Disappointing - I expected so much more.",
	"The author's writing style didn't appeal to me.",
	"Would not recommend to a friend.",
	"The story was all over the place with no direction.",
	"Boring and unimaginative plot.",
	"The characters lacked personality and depth.",
	"Too many cliches and predictable moments.",
	"The writing felt amateurish and unpolished.",
	"A waste of time and money.",
}
