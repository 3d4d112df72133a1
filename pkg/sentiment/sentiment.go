// Package sentiment scores comment text polarity and aggregates per-fetch
// sentiment summaries.
package sentiment

import (
	"math"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/vidpulse/vidpulse/pkg/youtube"
)

// Category buckets a polarity score.
type Category string

const (
	VeryNegative Category = "Very Negative"
	Negative     Category = "Negative"
	Neutral      Category = "Neutral"
	Positive     Category = "Positive"
	VeryPositive Category = "Very Positive"
)

// Thresholds are the neutral-band cut points used for categorization and
// positive/negative counting. They are parameters rather than constants so
// an alternate scoring policy can be swapped in without touching callers.
type Thresholds struct {
	Positive float64 `yaml:"positive"`
	Negative float64 `yaml:"negative"`
}

// DefaultThresholds returns the standard neutral band [-0.1, 0.1].
func DefaultThresholds() Thresholds {
	return Thresholds{Positive: 0.1, Negative: -0.1}
}

// Scorer computes polarity scores in [-1, 1].
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
	cuts     Thresholds
}

// NewScorer creates a scorer with the given categorization cut points.
func NewScorer(cuts Thresholds) *Scorer {
	return &Scorer{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
		cuts:     cuts,
	}
}

// Score returns the polarity of text in [-1, 1]. It never fails: empty or
// unscorable input is neutral (0).
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return clamp(s.analyzer.PolarityScores(text).Compound, -1, 1)
}

// Categorize maps a polarity score to exactly one of the five categories.
// The outer cuts sit at ±0.5; the neutral band is closed on both ends.
func (s *Scorer) Categorize(polarity float64) Category {
	switch {
	case polarity < -0.5:
		return VeryNegative
	case polarity < s.cuts.Negative:
		return Negative
	case polarity <= s.cuts.Positive:
		return Neutral
	case polarity <= 0.5:
		return Positive
	default:
		return VeryPositive
	}
}

// ScoredComment is a comment annotated with its polarity.
type ScoredComment struct {
	youtube.Comment
	Polarity float64  `json:"polarity"`
	Category Category `json:"category"`
}

// ScoreAll scores every comment with non-empty text. Comments whose text is
// blank (deleted or stripped comments) are dropped, so a non-empty input can
// legitimately yield an empty result.
func (s *Scorer) ScoreAll(comments []youtube.Comment) []ScoredComment {
	scored := make([]ScoredComment, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		p := s.Score(c.Text)
		scored = append(scored, ScoredComment{
			Comment:  c,
			Polarity: p,
			Category: s.Categorize(p),
		})
	}
	return scored
}

// Summary is the aggregate sentiment of one fetch.
type Summary struct {
	AvgSentiment  float64 `json:"avg_sentiment"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	TotalComments int     `json:"total_comments"`
}

// Summarize aggregates scored comments. Counts always satisfy
// total = positive + negative + neutral.
func (s *Scorer) Summarize(scored []ScoredComment) Summary {
	if len(scored) == 0 {
		return Summary{}
	}

	var sum float64
	var positive, negative int
	for _, c := range scored {
		sum += c.Polarity
		if c.Polarity > s.cuts.Positive {
			positive++
		} else if c.Polarity < s.cuts.Negative {
			negative++
		}
	}

	total := len(scored)
	return Summary{
		AvgSentiment:  sum / float64(total),
		PositiveCount: positive,
		NegativeCount: negative,
		NeutralCount:  total - positive - negative,
		TotalComments: total,
	}
}

// PositivePct, NegativePct and NeutralPct express the counts as percentages
// of the total; all return 0 for an empty summary.
func (s Summary) PositivePct() float64 { return pct(s.PositiveCount, s.TotalComments) }
func (s Summary) NegativePct() float64 { return pct(s.NegativeCount, s.TotalComments) }
func (s Summary) NeutralPct() float64  { return pct(s.NeutralCount, s.TotalComments) }

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// ImpactScore weighs a comment's polarity by its engagement: sentiment
// normalized to [0, 1] times 1 + log1p(likes + replies).
func ImpactScore(polarity float64, likes, replies int) float64 {
	normalized := (clamp(polarity, -1, 1) + 1) / 2
	engagement := math.Log1p(float64(likes + replies))
	return normalized * (1 + engagement)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
