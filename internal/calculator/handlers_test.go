package calculator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calculator-api/internal/observability"
	"calculator-api/internal/store"
	"calculator-api/internal/testutil"

	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	s := store.New(testutil.NewTestDB(t))
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return NewHandler(s)
}

func postJSON(handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeOperationResponse(t *testing.T, w *httptest.ResponseRecorder) OperationResponse {
	t.Helper()

	var resp OperationResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	return resp
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	testutil.DecodeJSONBody(t, w.Body, &body)
	return body["error"]
}

func TestAddEndpointComputesAndRecords(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{"a":10,"b":5}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	resp := decodeOperationResponse(t, w)
	if resp.Result != 15 {
		t.Fatalf("expected result 15, got %g", resp.Result)
	}
	if resp.CalculationID == nil {
		t.Fatal("expected a calculation_id")
	}
	if !strings.Contains(resp.Message, "saved to database") {
		t.Fatalf("expected confirmation message, got %q", resp.Message)
	}
}

func TestSubtractEndpointComputes(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Subtract, "/subtract", `{"a":10,"b":5}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	if resp := decodeOperationResponse(t, w); resp.Result != 5 {
		t.Fatalf("expected result 5, got %g", resp.Result)
	}
}

func TestMultiplyByZeroReturnsZero(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Multiply, "/multiply", `{"a":100,"b":0}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	if resp := decodeOperationResponse(t, w); resp.Result != 0 {
		t.Fatalf("expected result 0, got %g", resp.Result)
	}
}

func TestDivideEndpointComputes(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Divide, "/divide", `{"a":10,"b":2}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	if resp := decodeOperationResponse(t, w); resp.Result != 5 {
		t.Fatalf("expected result 5, got %g", resp.Result)
	}
}

func TestDivideByZeroIsClientError(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Divide, "/divide", `{"a":10,"b":0}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	if msg := decodeErrorResponse(t, w); !strings.Contains(msg, "Cannot divide by zero!") {
		t.Fatalf("expected zero-divisor message, got %q", msg)
	}
}

func TestNonNumericOperandFailsValidation(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{"a":"invalid","b":5}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	if msg := decodeErrorResponse(t, w); !strings.Contains(msg, "a: must be a number") {
		t.Fatalf("expected field error for a, got %q", msg)
	}
}

func TestMissingOperandsAggregateFieldErrors(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	msg := decodeErrorResponse(t, w)
	if !strings.Contains(msg, "a: is required") || !strings.Contains(msg, "b: is required") {
		t.Fatalf("expected aggregated field errors, got %q", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Fatalf("expected semicolon-joined errors, got %q", msg)
	}
}

func TestOverlongUsernameFailsValidation(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{"a":1,"b":2,"username":"`+strings.Repeat("x", 51)+`"}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	if msg := decodeErrorResponse(t, w); !strings.Contains(msg, "username: must be at most 50 characters") {
		t.Fatalf("expected username length error, got %q", msg)
	}
}

func TestRepeatedUsernameCreatesOneUser(t *testing.T) {
	h := newTestHandler(t)

	for i := 0; i < 2; i++ {
		w := postJSON(h.Add, "/add", `{"a":1,"b":2,"username":"alice"}`)
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	w := httptest.NewRecorder()
	h.Users(w, req)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp UsersResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Count != 1 {
		t.Fatalf("expected 1 user, got %d", resp.Count)
	}
	if resp.Users[0].Username != "alice" {
		t.Fatalf("expected username %q, got %q", "alice", resp.Users[0].Username)
	}
	if resp.Users[0].CalculationCount != 2 {
		t.Fatalf("expected calculation_count 2, got %d", resp.Users[0].CalculationCount)
	}
}

func TestDefaultUsernameIsAnonymous(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{"a":1,"b":2}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	uw := httptest.NewRecorder()
	h.Users(uw, req)

	var resp UsersResponse
	testutil.DecodeJSONBody(t, uw.Body, &resp)
	if resp.Count != 1 {
		t.Fatalf("expected 1 user, got %d", resp.Count)
	}
	if resp.Users[0].Username != "anonymous" {
		t.Fatalf("expected username %q, got %q", "anonymous", resp.Users[0].Username)
	}
	if resp.Users[0].Email != "anonymous@calculator.com" {
		t.Fatalf("expected synthesized email, got %q", resp.Users[0].Email)
	}
}

func TestCalculationsLimitReturnsMostRecent(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{`{"a":1,"b":1}`, `{"a":2,"b":2}`, `{"a":3,"b":3}`} {
		w := postJSON(h.Add, "/add", body)
		testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/calculations?limit=1", nil)
	w := httptest.NewRecorder()
	h.Calculations(w, req)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp CalculationsResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Count != 1 {
		t.Fatalf("expected count 1, got %d", resp.Count)
	}
	got := resp.Calculations[0]
	if got.OperandA != 3 || got.OperandB != 3 || got.Result != 6 {
		t.Fatalf("expected the most recent calculation, got a=%g b=%g result=%g", got.OperandA, got.OperandB, got.Result)
	}
}

func TestCalculationsBadLimitFallsBackToDefault(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{"a":1,"b":1}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/calculations?limit=bogus", nil)
	cw := httptest.NewRecorder()
	h.Calculations(cw, req)
	testutil.CheckResponseCode(t, http.StatusOK, cw.Code)

	var resp CalculationsResponse
	testutil.DecodeJSONBody(t, cw.Body, &resp)
	if resp.Count != 1 {
		t.Fatalf("expected count 1, got %d", resp.Count)
	}
}

// failingStore errors on every call, standing in for a store that lost its
// backing database mid-flight.
type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) Migrate(context.Context) error { return errStoreDown }

func (failingStore) RecordCalculation(context.Context, string, store.Operation, float64, float64, float64) (*int64, error) {
	return nil, errStoreDown
}

func (failingStore) RecentCalculations(context.Context, int) ([]store.Calculation, error) {
	return nil, errStoreDown
}

func (failingStore) ListUsers(context.Context) ([]store.UserWithCount, error) {
	return nil, errStoreDown
}

func (failingStore) Close() error { return nil }

func TestRecordFailureStillReturnsResult(t *testing.T) {
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}
	h := NewHandler(failingStore{})

	w := postJSON(h.Add, "/add", `{"a":10,"b":5}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	resp := decodeOperationResponse(t, w)
	if resp.Result != 15 {
		t.Fatalf("expected result 15, got %g", resp.Result)
	}
	if resp.CalculationID != nil {
		t.Fatalf("expected null calculation_id, got %d", *resp.CalculationID)
	}
	if !strings.Contains(resp.Message, "not saved") {
		t.Fatalf("expected not-saved message, got %q", resp.Message)
	}
}

func TestHistoryFailuresAreGenericServerErrors(t *testing.T) {
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}
	h := NewHandler(failingStore{})

	req := httptest.NewRequest(http.MethodGet, "/calculations", nil)
	w := httptest.NewRecorder()
	h.Calculations(w, req)
	testutil.CheckResponseCode(t, http.StatusInternalServerError, w.Code)
	if msg := decodeErrorResponse(t, w); msg != "Error fetching calculations" {
		t.Fatalf("expected generic message, got %q", msg)
	}

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	w = httptest.NewRecorder()
	h.Users(w, req)
	testutil.CheckResponseCode(t, http.StatusInternalServerError, w.Code)
	if msg := decodeErrorResponse(t, w); msg != "Error fetching users" {
		t.Fatalf("expected generic message, got %q", msg)
	}
}

func TestDisabledStoreServesDegradedMode(t *testing.T) {
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}
	h := NewHandler(store.NewNoop())

	w := postJSON(h.Divide, "/divide", `{"a":9,"b":3}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	resp := decodeOperationResponse(t, w)
	if resp.Result != 3 {
		t.Fatalf("expected result 3, got %g", resp.Result)
	}
	if resp.CalculationID != nil {
		t.Fatal("expected null calculation_id from disabled store")
	}

	req := httptest.NewRequest(http.MethodGet, "/calculations", nil)
	cw := httptest.NewRecorder()
	h.Calculations(cw, req)
	testutil.CheckResponseCode(t, http.StatusOK, cw.Code)

	var hist CalculationsResponse
	testutil.DecodeJSONBody(t, cw.Body, &hist)
	if hist.Count != 0 {
		t.Fatalf("expected empty history, got %d", hist.Count)
	}
	if hist.Calculations == nil {
		t.Fatal("expected empty array, got null")
	}
}

func TestMalformedBodyIsClientError(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(h.Add, "/add", `{"a":`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	if msg := decodeErrorResponse(t, w); msg == "" {
		t.Fatal("expected an error message")
	}
}
