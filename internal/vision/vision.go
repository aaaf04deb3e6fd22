// Package vision turns a food photo into a partial food record.
//
// Only a mock analyzer exists: it waits a moment and returns placeholder
// macros. A real vision model would implement Analyzer in its place.
package vision

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"food-log/internal/models"
)

const DetectedFoodName = "Detected Food Item"

var ErrNoImage = errors.New("image reference is required")

type Analyzer interface {
	Analyze(ctx context.Context, imageURI string) (models.PhotoAnalysis, error)
}

type MockAnalyzer struct {
	delay  time.Duration
	logger *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockAnalyzer returns an analyzer that sleeps for delay before answering.
// A nil rnd seeds one from the clock.
func NewMockAnalyzer(delay time.Duration, rnd *rand.Rand, logger *zap.Logger) *MockAnalyzer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockAnalyzer{delay: delay, rnd: rnd, logger: logger}
}

func (a *MockAnalyzer) Analyze(ctx context.Context, imageURI string) (models.PhotoAnalysis, error) {
	if strings.TrimSpace(imageURI) == "" {
		return models.PhotoAnalysis{}, ErrNoImage
	}

	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.PhotoAnalysis{}, ctx.Err()
		case <-timer.C:
		}
	}

	a.mu.Lock()
	calories := float64(200 + a.rnd.Intn(300))
	protein := float64(5 + a.rnd.Intn(20))
	carbs := float64(10 + a.rnd.Intn(30))
	fat := float64(5 + a.rnd.Intn(15))
	a.mu.Unlock()

	name := DetectedFoodName
	a.logger.Debug("photo analyzed",
		zap.String("image_uri", imageURI),
		zap.Float64("calories", calories),
	)

	return models.PhotoAnalysis{
		Name:     &name,
		Calories: &calories,
		Protein:  &protein,
		Carbs:    &carbs,
		Fat:      &fat,
		ImageURI: imageURI,
	}, nil
}
