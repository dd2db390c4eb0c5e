package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"voyago/travel-planner/internal/config"
	"voyago/travel-planner/internal/repository"
	"voyago/travel-planner/internal/service"

	"github.com/stretchr/testify/require"
)

// memOverrides is an in-memory stand-in for the Redis override store.
type memOverrides struct {
	manual  map[string]float64
	enabled map[string]bool
}

func newMemOverrides() *memOverrides {
	return &memOverrides{manual: map[string]float64{}, enabled: map[string]bool{}}
}

func (m *memOverrides) GetManualRates(ctx context.Context) (map[string]float64, error) {
	out := map[string]float64{}
	for k, v := range m.manual {
		out[k] = v
	}
	return out, nil
}

func (m *memOverrides) SetManualRates(ctx context.Context, rates map[string]float64) error {
	m.manual = rates
	return nil
}

func (m *memOverrides) GetEnabled(ctx context.Context) (map[string]bool, error) {
	out := map[string]bool{}
	for k, v := range m.enabled {
		out[k] = v
	}
	return out, nil
}

func (m *memOverrides) SetEnabled(ctx context.Context, enabled map[string]bool) error {
	m.enabled = enabled
	return nil
}

var _ repository.OverrideRepository = (*memOverrides)(nil)

func rateServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newRateService(t *testing.T, srv *httptest.Server, overrides repository.OverrideRepository) service.RateService {
	t.Helper()
	return service.NewRateService(config.RatesConfig{BaseURL: srv.URL}, overrides)
}

// TestFetchRates_success verifies the success payload is decoded into the
// code-to-multiplier mapping.
func TestFetchRates_success(t *testing.T) {
	srv := rateServer(t, `{"result":"success","rates":{"USD":1.0847,"JPY":163.2}}`, http.StatusOK)
	defer srv.Close()

	rates, err := newRateService(t, srv, newMemOverrides()).FetchRates(context.Background(), "eur")
	require.NoError(t, err)
	require.InDelta(t, 1.0847, rates["USD"], 1e-9)
	require.InDelta(t, 163.2, rates["JPY"], 1e-9)
}

// TestFetchRates_failureStatus verifies a non-success result maps to the
// retryable connectivity error.
func TestFetchRates_failureStatus(t *testing.T) {
	srv := rateServer(t, `{"result":"error"}`, http.StatusOK)
	defer srv.Close()

	_, err := newRateService(t, srv, newMemOverrides()).FetchRates(context.Background(), "EUR")
	require.ErrorIs(t, err, service.ErrRateSource)
}

// TestFetchRates_httpError verifies a 5xx from the source maps to the
// retryable connectivity error.
func TestFetchRates_httpError(t *testing.T) {
	srv := rateServer(t, `oops`, http.StatusInternalServerError)
	defer srv.Close()

	_, err := newRateService(t, srv, newMemOverrides()).FetchRates(context.Background(), "EUR")
	require.ErrorIs(t, err, service.ErrRateSource)
}

// TestFetchRates_rejectsBadCode verifies the base currency must be a
// three-letter code before any request goes out.
func TestFetchRates_rejectsBadCode(t *testing.T) {
	srv := rateServer(t, `{}`, http.StatusOK)
	defer srv.Close()

	_, err := newRateService(t, srv, newMemOverrides()).FetchRates(context.Background(), "EURO")
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrRateSource)
}

// TestConvert_marketRate verifies amount * fetched rate, rounded to two
// decimal places.
func TestConvert_marketRate(t *testing.T) {
	srv := rateServer(t, `{"result":"success","rates":{"USD":1.0847}}`, http.StatusOK)
	defer srv.Close()

	conv, err := newRateService(t, srv, newMemOverrides()).Convert(context.Background(), 100, "EUR", "USD")
	require.NoError(t, err)
	require.InDelta(t, 108.47, conv.Converted, 1e-9)
	require.False(t, conv.Manual)
}

// TestConvert_manualOverrideWins verifies an enabled manual override
// replaces the fetched rate entirely.
func TestConvert_manualOverrideWins(t *testing.T) {
	srv := rateServer(t, `{"result":"success","rates":{"USD":1.0847}}`, http.StatusOK)
	defer srv.Close()

	overrides := newMemOverrides()
	svc := newRateService(t, srv, overrides)
	require.NoError(t, svc.SetManualRate(context.Background(), "USD", 2))
	require.NoError(t, svc.SetEnabled(context.Background(), "USD", true))

	conv, err := svc.Convert(context.Background(), 100, "EUR", "USD")
	require.NoError(t, err)
	require.InDelta(t, 200.0, conv.Converted, 1e-9)
	require.True(t, conv.Manual)
}

// TestConvert_disabledOverrideIgnored verifies a pinned rate with the flag
// off does not affect the result.
func TestConvert_disabledOverrideIgnored(t *testing.T) {
	srv := rateServer(t, `{"result":"success","rates":{"USD":1.5}}`, http.StatusOK)
	defer srv.Close()

	overrides := newMemOverrides()
	svc := newRateService(t, srv, overrides)
	require.NoError(t, svc.SetManualRate(context.Background(), "USD", 9))

	conv, err := svc.Convert(context.Background(), 10, "EUR", "USD")
	require.NoError(t, err)
	require.InDelta(t, 15.0, conv.Converted, 1e-9)
	require.False(t, conv.Manual)
}

// TestConvert_unknownTarget verifies a currency absent from the source
// response is reported distinctly from a connectivity failure.
func TestConvert_unknownTarget(t *testing.T) {
	srv := rateServer(t, `{"result":"success","rates":{"USD":1.5}}`, http.StatusOK)
	defer srv.Close()

	_, err := newRateService(t, srv, newMemOverrides()).Convert(context.Background(), 10, "EUR", "XXX")
	require.ErrorIs(t, err, service.ErrUnknownCurrency)
}

// TestSetManualRate_rejectsNonPositive verifies the positive-number
// constraint on manual rates.
func TestSetManualRate_rejectsNonPositive(t *testing.T) {
	srv := rateServer(t, `{}`, http.StatusOK)
	defer srv.Close()

	svc := newRateService(t, srv, newMemOverrides())
	require.ErrorIs(t, svc.SetManualRate(context.Background(), "USD", 0), service.ErrInvalidRate)
	require.ErrorIs(t, svc.SetManualRate(context.Background(), "USD", -1), service.ErrInvalidRate)
}

// TestClearManualRate verifies clearing removes both the pinned rate and
// its flag.
func TestClearManualRate(t *testing.T) {
	srv := rateServer(t, `{}`, http.StatusOK)
	defer srv.Close()

	overrides := newMemOverrides()
	svc := newRateService(t, srv, overrides)
	require.NoError(t, svc.SetManualRate(context.Background(), "USD", 2))
	require.NoError(t, svc.SetEnabled(context.Background(), "USD", true))
	require.NoError(t, svc.ClearManualRate(context.Background(), "USD"))

	got, err := svc.GetOverrides(context.Background())
	require.NoError(t, err)
	require.NotContains(t, got.Manual, "USD")
	require.NotContains(t, got.Enabled, "USD")
}
