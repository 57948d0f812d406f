package calculator

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"calculator-api/internal/handlers"
	"calculator-api/internal/observability"
	"calculator-api/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// defaultHistoryLimit caps GET /calculations when the caller does not supply
// a limit. A caller-supplied limit has no upper bound.
const defaultHistoryLimit = 10

// confirmations maps operation kinds to the noun used in response messages.
var confirmations = map[store.Operation]string{
	store.OpAdd:      "Addition",
	store.OpSubtract: "Subtraction",
	store.OpMultiply: "Multiplication",
	store.OpDivide:   "Division",
}

// Handler serves the operation and history endpoints against an injected
// store handle. One scoped session is derived per request via the request
// context; the handler itself holds no per-request state.
type Handler struct {
	store store.Store
}

func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}

// Add handles POST /add
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, store.OpAdd, func(a, b float64) (float64, error) {
		return Add(a, b), nil
	})
}

// Subtract handles POST /subtract
func (h *Handler) Subtract(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, store.OpSubtract, func(a, b float64) (float64, error) {
		return Subtract(a, b), nil
	})
}

// Multiply handles POST /multiply
func (h *Handler) Multiply(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, store.OpMultiply, func(a, b float64) (float64, error) {
		return Multiply(a, b), nil
	})
}

// Divide handles POST /divide. The zero-divisor case is a client error;
// anything else that fails during division is a server error.
func (h *Handler) Divide(w http.ResponseWriter, r *http.Request) {
	h.handleOperation(w, r, store.OpDivide, Divide)
}

// handleOperation is the shared implementation for all operation endpoints:
// decode and validate, compute, attempt to record, respond. A failed record
// attempt downgrades calculation_id to null instead of failing the request.
func (h *Handler) handleOperation(w http.ResponseWriter, r *http.Request, op store.Operation, compute func(float64, float64) (float64, error)) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	opName := string(op)

	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	req, err := decodeOperationRequest(r.Body)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.Float64("calculator.operand.a", *req.A),
		attribute.Float64("calculator.operand.b", *req.B),
		attribute.String("calculator.username", req.Username),
	)

	start := time.Now()
	result, err := compute(*req.A, *req.B)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		if op == store.OpDivide && !errors.Is(err, ErrDivideByZero) {
			observability.RecordError(ctx, span, logger, errorCounter, opName, "Internal Server Error", err, http.StatusInternalServerError, w)
			return
		}
		observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, http.StatusBadRequest, w)
		return
	}

	// The record step never aborts the response: a persistence failure is
	// logged and surfaced to the client as a null calculation_id.
	calcID, err := h.store.RecordCalculation(ctx, req.Username, op, *req.A, *req.B, result)
	if err != nil {
		saveFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", opName)))
		logger.Error("recording calculation failed",
			zap.String("operation", opName),
			zap.String("username", req.Username),
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		calcID = nil
	}

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	opsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)
	resultGauge.Record(ctx, result, attrs)

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.Float64("result", result),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.Float64("calculator.result", result))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.Float64("a", *req.A),
		zap.Float64("b", *req.B),
		zap.Float64("result", result),
		zap.String("username", req.Username),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, OperationResponse{
		Result:        result,
		CalculationID: calcID,
		Message:       confirmationMessage(op, calcID),
	})
}

func confirmationMessage(op store.Operation, calcID *int64) string {
	noun := confirmations[op]
	if calcID == nil {
		return fmt.Sprintf("%s completed (result not saved)", noun)
	}
	return fmt.Sprintf("%s saved to database (ID: %d)", noun, *calcID)
}

// Calculations handles GET /calculations?limit=N, newest first.
func (h *Handler) Calculations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	calcs, err := h.store.RecentCalculations(ctx, limit)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "calculations", "Error fetching calculations", err, http.StatusInternalServerError, w)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, CalculationsResponse{
		Count:        len(calcs),
		Calculations: calcs,
	})
}

// Users handles GET /users, every user with its calculation count.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	span := trace.SpanFromContext(ctx)

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "users", "Error fetching users", err, http.StatusInternalServerError, w)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, UsersResponse{
		Count: len(users),
		Users: users,
	})
}
