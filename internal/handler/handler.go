// internal/handler/handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mkale2207/house-price-service/internal/cache"
	"github.com/mkale2207/house-price-service/internal/features"
	"github.com/mkale2207/house-price-service/internal/inference"
	"github.com/mkale2207/house-price-service/internal/metrics"
	"github.com/mkale2207/house-price-service/internal/middleware"
	"github.com/mkale2207/house-price-service/internal/preprocess"
)

// ConfidenceInterval bounds the price estimate.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PredictionResponse is the JSON body returned for a successful prediction.
type PredictionResponse struct {
	PredictedPrice     float64            `json:"predicted_price"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	TopFactors         []inference.Factor `json:"top_factors"`
	ModelVersion       string             `json:"model_version"`
	Cached             bool               `json:"cached,omitempty"`
}

// BatchRequest is the JSON body for POST /predict/batch.
type BatchRequest struct {
	Requests []features.PredictionRequest `json:"requests"`
}

// BatchResponse is the JSON body returned for a successful batch prediction.
type BatchResponse struct {
	Responses []*PredictionResponse `json:"responses"`
}

// HealthResponse is the JSON body for GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version,omitempty"`
}

// Handler serves the prediction API. It orchestrates the request pipeline:
// validate -> preprocess -> predict -> assemble response. The preprocessor
// and engine are read-only after startup and shared across all requests.
type Handler struct {
	pre      *preprocess.Preprocessor
	engine   inference.Engine
	cache    *cache.Cache
	schema   features.Schema
	timeout  time.Duration
	maxBatch int
	tracer   trace.Tracer

	ready atomic.Bool
}

// New creates a Handler. The cache may be nil, in which case every request
// is computed. The validation schema is derived from the preprocessor's
// accepted labels so the two can never disagree.
func New(pre *preprocess.Preprocessor, engine inference.Engine, c *cache.Cache, timeout time.Duration, maxBatch int) *Handler {
	h := &Handler{
		pre:      pre,
		engine:   engine,
		cache:    c,
		timeout:  timeout,
		maxBatch: maxBatch,
		tracer:   otel.Tracer("house-price-service/handler"),
	}
	if pre != nil {
		h.schema = features.NewSchema(pre.Locations(), pre.Conditions())
	}
	return h
}

// Register attaches the API routes to e.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/predict", h.Predict)
	e.POST("/predict/batch", h.BatchPredict)
	e.GET("/health", h.Health)
}

// SetReady flips the readiness flag reported by /health. Startup sets it
// once artifacts are loaded; shutdown clears it before draining.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Ready reports the current readiness flag.
func (h *Handler) Ready() bool {
	return h.ready.Load()
}

// Health reports whether the service is ready to serve predictions.
func (h *Handler) Health(c echo.Context) error {
	if !h.ready.Load() || h.engine == nil || h.pre == nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:       "ok",
		ModelVersion: h.engine.Version(),
	})
}

// Predict handles a single prediction request.
func (h *Handler) Predict(c echo.Context) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	requestID := middleware.GetRequestID(ctx)

	var dto features.PredictionRequest
	if err := c.Bind(&dto); err != nil {
		return respondError(c, validationError("body", "malformed JSON request body"))
	}

	resp, err := h.predictOne(ctx, dto, "")
	if err != nil {
		h.logFailure(requestID, dto, err)
		return respondError(c, err)
	}

	log.Info().
		Str("request_id", requestID).
		Float64("predicted_price", resp.PredictedPrice).
		Bool("cache_hit", resp.Cached).
		Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0).
		Msg("predict")

	return c.JSON(http.StatusOK, resp)
}

// BatchPredict handles a batch of prediction requests. Validation failures
// anywhere in the batch fail the whole batch, with the item index in the
// field path; responses preserve request order.
func (h *Handler) BatchPredict(c echo.Context) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	requestID := middleware.GetRequestID(ctx)

	var batch BatchRequest
	if err := c.Bind(&batch); err != nil {
		return respondError(c, validationError("body", "malformed JSON request body"))
	}

	if len(batch.Requests) == 0 {
		return respondError(c, validationError("requests", "must contain at least one request"))
	}
	if len(batch.Requests) > h.maxBatch {
		return respondError(c, validationError("requests",
			"batch size exceeds maximum of "+strconv.Itoa(h.maxBatch)))
	}

	metrics.RecordPredictionBatch(len(batch.Requests))

	// Validate the entire batch before predicting anything, so a bad item
	// never costs model time for its neighbors.
	var invalid features.ValidationError
	for i, dto := range batch.Requests {
		if _, err := h.validate(dto, prefixFor(i)); err != nil {
			if ve, ok := features.AsValidationError(err); ok {
				invalid.Fields = append(invalid.Fields, ve.Fields...)
				continue
			}
			return respondError(c, err)
		}
	}
	if len(invalid.Fields) > 0 {
		return respondError(c, &invalid)
	}

	responses := make([]*PredictionResponse, len(batch.Requests))
	for i, dto := range batch.Requests {
		resp, err := h.predictOne(ctx, dto, prefixFor(i))
		if err != nil {
			h.logFailure(requestID, dto, err)
			return respondError(c, err)
		}
		responses[i] = resp
	}

	log.Info().
		Str("request_id", requestID).
		Int("batch_size", len(batch.Requests)).
		Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0).
		Msg("batch predict")

	return c.JSON(http.StatusOK, BatchResponse{Responses: responses})
}

// validate runs schema validation without touching the model.
func (h *Handler) validate(dto features.PredictionRequest, prefix string) (features.Request, error) {
	if h.pre == nil || h.engine == nil {
		return features.Request{}, inference.ErrEngineUnavailable
	}
	return h.schema.Validate(dto, prefix)
}

// predictOne runs the full pipeline for one request: validate, check the
// cache, preprocess, predict, assemble, store.
func (h *Handler) predictOne(ctx context.Context, dto features.PredictionRequest, prefix string) (*PredictionResponse, error) {
	ctx, span := h.tracer.Start(ctx, "predict")
	defer span.End()

	req, err := h.validate(dto, prefix)
	if err != nil {
		return nil, err
	}

	key := cache.Key(h.engine.Version(), req)
	if cached, ok := h.cacheLookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	x, err := h.pre.Transform(req)
	if err != nil {
		return nil, err
	}

	inferStart := time.Now()
	pred, err := h.engine.Predict(ctx, x)
	metrics.RecordInferenceLatency(time.Since(inferStart).Seconds())
	if err != nil {
		return nil, err
	}

	resp := &PredictionResponse{
		PredictedPrice: pred.Price,
		ConfidenceInterval: ConfidenceInterval{
			Lower: pred.Lower,
			Upper: pred.Upper,
		},
		TopFactors:   pred.Factors,
		ModelVersion: h.engine.Version(),
	}

	h.cacheStore(ctx, key, resp)

	return resp, nil
}

// cacheLookup returns a cached response if one exists. Cache failures are
// recorded and ignored; the prediction is simply recomputed.
func (h *Handler) cacheLookup(ctx context.Context, key string) (*PredictionResponse, bool) {
	if h.cache == nil {
		return nil, false
	}

	data, err := h.cache.GetResponse(ctx, key)
	if err != nil {
		metrics.RecordCacheResult("error")
		log.Warn().Err(err).Msg("prediction cache lookup failed")
		return nil, false
	}
	if data == "" {
		metrics.RecordCacheResult("miss")
		return nil, false
	}

	var resp PredictionResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		metrics.RecordCacheResult("error")
		return nil, false
	}

	metrics.RecordCacheResult("hit")
	resp.Cached = true
	return &resp, true
}

// cacheStore writes a freshly computed response to the cache, best effort.
func (h *Handler) cacheStore(ctx context.Context, key string, resp *PredictionResponse) {
	if h.cache == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.SetResponse(ctx, key, string(data)); err != nil {
		log.Warn().Err(err).Msg("prediction cache store failed")
	}
}

// logFailure logs a failed request. Validation failures are expected client
// errors and logged at debug; anything else includes the input for diagnosis.
func (h *Handler) logFailure(requestID string, dto features.PredictionRequest, err error) {
	if _, ok := features.AsValidationError(err); ok {
		log.Debug().
			Str("request_id", requestID).
			Err(err).
			Msg("request rejected")
		return
	}

	log.Error().
		Str("request_id", requestID).
		Err(err).
		Interface("request", dto).
		Msg("prediction failed")
}

func prefixFor(i int) string {
	return "requests[" + strconv.Itoa(i) + "]."
}
