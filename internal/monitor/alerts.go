package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/vidpulse/vidpulse/internal/store"
)

// Alert types written by the evaluator.
const (
	AlertNegativeThreshold = "negative_threshold"
	AlertPositiveThreshold = "positive_threshold"
	AlertSentimentDrop     = "sentiment_drop"
	AlertSentimentRise     = "sentiment_rise"
)

// Thresholds control when the evaluator raises alerts. Negative and
// Positive are absolute levels; Drop and Rise bound the change between
// consecutive observations.
type Thresholds struct {
	Negative float64 `yaml:"negative"`
	Positive float64 `yaml:"positive"`
	Drop     float64 `yaml:"drop"`
	Rise     float64 `yaml:"rise"`
}

// DefaultThresholds returns the standard alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Negative: -0.3, Positive: 0.5, Drop: 0.2, Rise: 0.2}
}

// Evaluator compares current aggregate sentiment against static thresholds
// and against the immediately preceding stored observation.
type Evaluator struct {
	store      store.Store
	thresholds Thresholds
}

// NewEvaluator creates an alert evaluator backed by the given store.
func NewEvaluator(s store.Store, t Thresholds) *Evaluator {
	return &Evaluator{store: s, thresholds: t}
}

// Check evaluates the alert conditions for one observation, persists every
// triggered alert, and returns them. The prior-state baseline is the most
// recent history entry strictly before now, so the entry written for the
// current cycle never compares against itself. A first observation has no
// prior and skips the delta checks. Inverted thresholds (negative above
// positive) can legitimately fire both absolute alerts; that is a
// configuration error surfaced as alerts, not suppressed here.
func (e *Evaluator) Check(ctx context.Context, videoID string, current float64, now time.Time) ([]store.Alert, error) {
	var triggered []store.Alert

	if current < e.thresholds.Negative {
		triggered = append(triggered, store.Alert{
			VideoID:      videoID,
			AlertType:    AlertNegativeThreshold,
			Timestamp:    now,
			Message:      fmt.Sprintf("sentiment dropped below %.2f: %.3f", e.thresholds.Negative, current),
			Threshold:    e.thresholds.Negative,
			CurrentValue: current,
		})
	}
	if current > e.thresholds.Positive {
		triggered = append(triggered, store.Alert{
			VideoID:      videoID,
			AlertType:    AlertPositiveThreshold,
			Timestamp:    now,
			Message:      fmt.Sprintf("sentiment exceeded %.2f: %.3f", e.thresholds.Positive, current),
			Threshold:    e.thresholds.Positive,
			CurrentValue: current,
		})
	}

	prior, err := e.store.LatestHistory(ctx, videoID, now)
	if err != nil {
		return nil, fmt.Errorf("check alerts %s: %w", videoID, err)
	}
	if prior != nil {
		delta := current - prior.AvgSentiment
		if delta < -e.thresholds.Drop {
			triggered = append(triggered, store.Alert{
				VideoID:      videoID,
				AlertType:    AlertSentimentDrop,
				Timestamp:    now,
				Message:      fmt.Sprintf("sentiment dropped by %.3f (from %.3f to %.3f)", -delta, prior.AvgSentiment, current),
				Threshold:    e.thresholds.Drop,
				CurrentValue: delta,
			})
		}
		if delta > e.thresholds.Rise {
			triggered = append(triggered, store.Alert{
				VideoID:      videoID,
				AlertType:    AlertSentimentRise,
				Timestamp:    now,
				Message:      fmt.Sprintf("sentiment rose by %.3f (from %.3f to %.3f)", delta, prior.AvgSentiment, current),
				Threshold:    e.thresholds.Rise,
				CurrentValue: delta,
			})
		}
	}

	for i := range triggered {
		if err := e.store.InsertAlert(ctx, &triggered[i]); err != nil {
			return triggered, fmt.Errorf("check alerts %s: %w", videoID, err)
		}
	}
	return triggered, nil
}
