package methods

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/imagesense/sense-bench/internal/pkg/logger"
)

// progress logs per-query progress, throttled so large query sets do not
// flood the log.
type progress struct {
	log     *logger.Logger
	limiter *rate.Limiter
	total   int
	done    int
	enabled bool
}

func newProgress(log *logger.Logger, total int, enabled bool) *progress {
	return &progress{
		log:     log,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		total:   total,
		enabled: enabled,
	}
}

func (p *progress) step(queryID string) {
	p.done++
	if !p.enabled {
		return
	}
	if p.done == p.total || p.limiter.Allow() {
		p.log.WithQuery(queryID).Info("progress", "done", p.done, "total", p.total)
	}
}
