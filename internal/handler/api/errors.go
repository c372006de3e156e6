package api

import (
	"context"
	"errors"
	"time"

	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/metrics"
	"MacroPulse/internal/usecase"
	xhttp "MacroPulse/pkg/http"
)

// toAppError maps use case errors onto HTTP errors.
func toAppError(err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domrepo.ErrNotFound):
		return xhttp.NotFoundErrorf("%s", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrNotIngestible), errors.Is(err, usecase.ErrInvalidBatch), errors.Is(err, usecase.ErrInvalidPortfolio):
		return xhttp.BadRequestErrorf("%s", err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableErrorf("upstream data timed out").WithError(err)
	default:
		return err
	}
}

// observe records endpoint latency, and an error when failed.
func observe(endpoint string, start time.Time, failed bool) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if failed {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
	}
}
