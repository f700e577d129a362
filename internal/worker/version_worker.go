package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
)

const (
	VersionBatchSize    = 50
	VersionBatchTimeout = 2 * time.Second
	VersionPollTimeout  = 1 * time.Second
)

// VersionWorker drains the version persistence queue and bulk-inserts
// generated test versions. Version generation responds from memory; the
// durable write happens here, off the request path.
type VersionWorker struct {
	testRepo *repository.TestRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

func NewVersionWorker(testRepo *repository.TestRepository, rdb *redis.Client, log zerolog.Logger) *VersionWorker {
	return &VersionWorker{
		testRepo: testRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "version_worker").Logger(),
	}
}

func (w *VersionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("VersionWorker started")

	batch := make([]model.TestVersion, 0, VersionBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= VersionBatchSize || time.Since(lastFlush) >= VersionBatchTimeout) {

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
			item, err := w.rdb.BLPop(ctx, VersionPollTimeout, config.WorkerKey.PersistVersionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var v model.TestVersion
			if err := json.Unmarshal([]byte(item[1]), &v); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, v)
		}
	}
}

// flushSafe bulk-inserts the batch; on failure it falls back to
// per-version inserts and requeues whatever still cannot be written.
func (w *VersionWorker) flushSafe(ctx context.Context, batch []model.TestVersion) {
	if len(batch) == 0 {
		return
	}

	err := w.testRepo.InsertVersions(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Versions persisted")
		return
	}
	w.log.Warn().Err(err).Msg("bulk version insert failed, using fallback")

	for i := range batch {
		if err := w.testRepo.InsertVersions(ctx, batch[i:i+1]); err != nil {
			w.log.Error().Err(err).
				Str("version_id", batch[i].ID.String()).
				Msg("single insert failed, requeueing")
			raw, _ := json.Marshal(batch[i])
			w.rdb.RPush(ctx, config.WorkerKey.PersistVersionsQueue, raw)
		}
	}
}
