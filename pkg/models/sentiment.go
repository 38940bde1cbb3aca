package models

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

type SentimentResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Score      float64        `json:"score"`
}

type SentimentResponse struct {
	Text      string          `json:"text"`
	Sentiment SentimentResult `json:"sentiment"`
}

// TrainingReport summarizes a learned sentiment model fit.
type TrainingReport struct {
	TrainAccuracy   float64 `json:"train_accuracy"`
	TestAccuracy    float64 `json:"test_accuracy"`
	NumFeatures     int     `json:"num_features"`
	TrainingSamples int     `json:"training_samples"`
}
