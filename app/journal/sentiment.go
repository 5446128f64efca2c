package journal

var sentimentLabels = [...]string{"Very Sad", "Sad", "Neutral", "Happy", "Very Happy"}

const (
	MinSentiment = 1
	MaxSentiment = 5
)

// SentimentLabel returns the fixed label for a 1-5 score, or "" when the
// score is out of range.
func SentimentLabel(score int) string {
	if score < MinSentiment || score > MaxSentiment {
		return ""
	}
	return sentimentLabels[score-1]
}
