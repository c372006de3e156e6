package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	pkghttp "MacroPulse/pkg/http"
	pkgkafka "MacroPulse/pkg/kafka"
	applogger "MacroPulse/pkg/logger"

	"github.com/creasty/defaults"
)

var (
	ErrNotIngestible = errors.New("series is not ingestible")
	ErrInvalidBatch  = errors.New("invalid observation batch")
)

// ObservationIngestUseCase writes breadth-proxy observations into the
// archive, from the HTTP endpoint or the Kafka ingest topic.
type ObservationIngestUseCase struct {
	store   domrepo.ObservationStore
	metrics domrepo.Metrics
	topic   string
	l       *applogger.Logger
}

var (
	_ domsvc.ObservationIngester = (*ObservationIngestUseCase)(nil)
	_ pkgkafka.MessageHandler    = (*ObservationIngestUseCase)(nil)
)

func NewObservationIngestUseCase(store domrepo.ObservationStore, metrics domrepo.Metrics, topic string, l *applogger.Logger) *ObservationIngestUseCase {
	return &ObservationIngestUseCase{store: store, metrics: metrics, topic: topic, l: l}
}

// Ingest validates and stores one batch, returning the number of rows written.
func (uc *ObservationIngestUseCase) Ingest(ctx context.Context, req *models.ObservationIngestRequest) (int, error) {
	if !domrepo.IsIngestible(req.SeriesID) {
		return 0, fmt.Errorf("%w: %s", ErrNotIngestible, req.SeriesID)
	}
	if uc.store == nil {
		return 0, fmt.Errorf("observation store is disabled")
	}

	obs := make([]models.Observation, 0, len(req.Observations))
	for _, in := range req.Observations {
		o, err := models.NewObservation(in.Date, in.Value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
		}
		obs = append(obs, o)
	}

	start := time.Now()
	if err := uc.store.StoreBatch(ctx, req.SeriesID, req.Source, obs); err != nil {
		uc.recordError("ingest_store")
		return 0, err
	}
	if uc.metrics != nil {
		uc.metrics.RecordLatency("ingest_store", time.Since(start).Seconds())
	}
	return len(obs), nil
}

func (uc *ObservationIngestUseCase) Topic() string { return uc.topic }

// Handle consumes one ObservationMessage from Kafka. Malformed messages are
// returned as errors so the consumer parks them in the DLQ.
func (uc *ObservationIngestUseCase) Handle(ctx context.Context, b []byte) error {
	var msg models.ObservationMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		uc.recordError("consumer_unmarshal")
		return fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if msg.Source == "" {
		msg.Source = "kafka"
	}
	if err := defaults.Set(&msg); err != nil {
		return err
	}
	if verrs := pkghttp.Validate(&msg); len(verrs) > 0 {
		uc.recordError("consumer_validate")
		fields := make([]string, 0, len(verrs))
		for _, v := range verrs {
			fields = append(fields, v.Field)
		}
		return fmt.Errorf("%w: invalid fields %s", ErrInvalidBatch, strings.Join(fields, ","))
	}

	n, err := uc.Ingest(ctx, &msg)
	if err != nil {
		return err
	}
	uc.l.Debug("observations ingested from kafka",
		applogger.String("series_id", msg.SeriesID),
		applogger.Int("rows", n),
		applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
	)
	return nil
}

func (uc *ObservationIngestUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
