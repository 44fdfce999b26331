package contracts

import (
	"context"
	"time"
)

// SeriesRepository loads a chronologically ordered price history
// ⭐ SSOT: 가격 시계열 저장소 인터페이스
type SeriesRepository interface {
	Load(ctx context.Context, symbol string, from, to time.Time) ([]Sample, error)
}

// SeriesWriter persists raw price rows (inputs only, never results)
type SeriesWriter interface {
	SaveBatch(ctx context.Context, symbol string, samples []Sample) error
}
