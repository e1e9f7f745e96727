package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	UsageBatchSize    = 100
	UsageBatchTimeout = 2 * time.Second
	UsagePollTimeout  = 1 * time.Second
)

// UsageWorker drains the usage-counter queue and applies batched increments
// to the question bank. The counters are best-effort by contract, so every
// failure path degrades (fallback, requeue) instead of surfacing.
type UsageWorker struct {
	questions *repository.QuestionRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewUsageWorker creates a new UsageWorker.
func NewUsageWorker(questions *repository.QuestionRepository, rdb *redis.Client, log zerolog.Logger) *UsageWorker {
	return &UsageWorker{
		questions: questions,
		rdb:       rdb,
		log:       log.With().Str("component", "usage_worker").Logger(),
	}
}

type usagePayload struct {
	QuestionID string `json:"question_id"`
	Delta      int64  `json:"delta"`
}

// Start runs the worker loop until ctx is cancelled, flushing any remaining
// batch on shutdown.
func (w *UsageWorker) Start(ctx context.Context) {
	w.log.Info().Msg("UsageWorker started")

	batch := make([]*usagePayload, 0, UsageBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= UsageBatchSize || time.Since(lastFlush) >= UsageBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, UsagePollTimeout, config.WorkerKey.PersistUsageCountsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p usagePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *UsageWorker) flushSafe(ctx context.Context, batch []*usagePayload) {
	if len(batch) == 0 {
		return
	}

	// Collapse duplicate question ids so one question answered by many
	// candidates is a single row in the bulk update.
	deltas := make(map[uuid.UUID]int64, len(batch))
	for _, p := range batch {
		id, err := uuid.Parse(p.QuestionID)
		if err != nil {
			w.log.Error().Str("question_id", p.QuestionID).Msg("Invalid question id in usage payload")
			continue
		}
		deltas[id] += p.Delta
	}
	if len(deltas) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(deltas))
	counts := make([]int64, 0, len(deltas))
	for id, d := range deltas {
		ids = append(ids, id)
		counts = append(counts, d)
	}

	if err := w.questions.BulkIncrementUsage(ctx, ids, counts); err != nil {
		w.log.Warn().Err(err).Msg("bulk usage update failed, using fallback")

		for i, id := range ids {
			if err := w.questions.IncrementUsage(ctx, id, counts[i]); err != nil {
				w.log.Error().Err(err).Msg("IncrementUsage failed — requeueing")
				raw, _ := json.Marshal(usagePayload{QuestionID: id.String(), Delta: counts[i]})
				w.rdb.RPush(ctx, config.WorkerKey.PersistUsageCountsQueue, raw)
			}
		}
	}
}
