package http

import (
	"math/rand"
	"net/http"
)

// SentimentSample is one canned market-news entry. This endpoint is a
// static lookup, not sentiment analysis.
type SentimentSample struct {
	Headline  string  `json:"headline"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Impact    string  `json:"impact"`
}

var sampleNews = []SentimentSample{
	{
		Headline:  "Heavy rainfall disrupts onion supply in Nashik region",
		Sentiment: "negative",
		Score:     -0.72,
		Impact:    "+8%",
	},
	{
		Headline:  "Transport strike called in Maharashtra APMCs",
		Sentiment: "negative",
		Score:     -0.63,
		Impact:    "+5%",
	},
	{
		Headline:  "Improved crop yield expected for Tur Dal in Gujarat",
		Sentiment: "positive",
		Score:     0.41,
		Impact:    "-3%",
	},
}

func randomSentiment() SentimentSample {
	return sampleNews[rand.Intn(len(sampleNews))]
}

func (a *API) handleSentiment(w http.ResponseWriter, r *http.Request) {
	item := randomSentiment()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"headline":  item.Headline,
		"sentiment": item.Sentiment,
		"score":     item.Score,
		"impact":    item.Impact,
	})
}
