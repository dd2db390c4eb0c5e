package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"voyago/travel-planner/internal/config"
	"voyago/travel-planner/internal/repository"
)

// --- Error Definitions ---
var (
	ErrRateSource      = errors.New("could not reach the exchange rate service")
	ErrUnknownCurrency = errors.New("no rate available for this currency")
	ErrInvalidRate     = errors.New("manual rate must be a positive number")
)

// Overrides is the user's manual rate layer: per-currency pinned rates and
// per-currency "use manual" flags. Global to the installation, independent
// of any trip.
type Overrides struct {
	Manual  map[string]float64 `json:"manual"`
	Enabled map[string]bool    `json:"enabled"`
}

// Conversion is one computed currency conversion. Manual reports whether
// an enabled override supplied the rate instead of the fetched one.
type Conversion struct {
	Amount    float64 `json:"amount"`
	Base      string  `json:"base"`
	Target    string  `json:"target"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
	Manual    bool    `json:"manual"`
}

// --- Service Interface ---
type RateService interface {
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
	Convert(ctx context.Context, amount float64, base, target string) (*Conversion, error)
	GetOverrides(ctx context.Context) (*Overrides, error)
	SetManualRate(ctx context.Context, code string, rate float64) error
	ClearManualRate(ctx context.Context, code string) error
	SetEnabled(ctx context.Context, code string, enabled bool) error
}

// rateSourceResponse is the wire shape of the rate endpoint: a status
// field plus, on success, target-code to multiplier mappings relative to
// the requested base.
type rateSourceResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// rateService implements the RateService interface.
type rateService struct {
	cfg       config.RatesConfig
	client    *http.Client
	overrides repository.OverrideRepository
}

// NewRateService creates a new instance of rateService.
func NewRateService(cfg config.RatesConfig, overrides repository.OverrideRepository) RateService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &rateService{
		cfg:       cfg,
		client:    &http.Client{Timeout: timeout},
		overrides: overrides,
	}
}

// FetchRates retrieves market rates for the given base currency. Any
// transport failure, non-200 status or non-success result maps to
// ErrRateSource so the caller can offer a manual retry.
func (s *rateService) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if len(base) != 3 {
		return nil, fmt.Errorf("base currency must be a three-letter code, got %q", base)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + base
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRateSource, resp.StatusCode)
	}

	var parsed rateSourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateSource, err)
	}
	if parsed.Result != "success" || parsed.Rates == nil {
		return nil, fmt.Errorf("%w: result %q", ErrRateSource, parsed.Result)
	}
	return parsed.Rates, nil
}

// Convert computes amount converted into the target currency, rounded to
// two decimal places. An enabled manual override for the target wins over
// the fetched market rate.
func (s *rateService) Convert(ctx context.Context, amount float64, base, target string) (*Conversion, error) {
	target = strings.ToUpper(strings.TrimSpace(target))

	overrides, err := s.GetOverrides(ctx)
	if err != nil {
		return nil, err
	}

	if overrides.Enabled[target] {
		if manual, ok := overrides.Manual[target]; ok {
			return &Conversion{
				Amount:    amount,
				Base:      strings.ToUpper(strings.TrimSpace(base)),
				Target:    target,
				Rate:      manual,
				Converted: round2(amount * manual),
				Manual:    true,
			}, nil
		}
	}

	rates, err := s.FetchRates(ctx, base)
	if err != nil {
		return nil, err
	}
	rate, ok := rates[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, target)
	}
	return &Conversion{
		Amount:    amount,
		Base:      strings.ToUpper(strings.TrimSpace(base)),
		Target:    target,
		Rate:      rate,
		Converted: round2(amount * rate),
	}, nil
}

// GetOverrides loads both override mappings.
func (s *rateService) GetOverrides(ctx context.Context) (*Overrides, error) {
	manual, err := s.overrides.GetManualRates(ctx)
	if err != nil {
		return nil, err
	}
	enabled, err := s.overrides.GetEnabled(ctx)
	if err != nil {
		return nil, err
	}
	return &Overrides{Manual: manual, Enabled: enabled}, nil
}

// SetManualRate pins a manual rate for one currency. The full mapping is
// persisted on every change.
func (s *rateService) SetManualRate(ctx context.Context, code string, rate float64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	manual, err := s.overrides.GetManualRates(ctx)
	if err != nil {
		return err
	}
	manual[code] = rate
	return s.overrides.SetManualRates(ctx, manual)
}

// ClearManualRate removes the pinned rate for one currency and disables
// its override flag, since a flag without a rate has nothing to apply.
func (s *rateService) ClearManualRate(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	manual, err := s.overrides.GetManualRates(ctx)
	if err != nil {
		return err
	}
	delete(manual, code)
	if err := s.overrides.SetManualRates(ctx, manual); err != nil {
		return err
	}
	enabled, err := s.overrides.GetEnabled(ctx)
	if err != nil {
		return err
	}
	delete(enabled, code)
	return s.overrides.SetEnabled(ctx, enabled)
}

// SetEnabled toggles the "use manual" flag for one currency.
func (s *rateService) SetEnabled(ctx context.Context, code string, enabled bool) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	flags, err := s.overrides.GetEnabled(ctx)
	if err != nil {
		return err
	}
	flags[code] = enabled
	return s.overrides.SetEnabled(ctx, flags)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
