package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
	"github.com/dgnsrekt/optchain-analytics/internal/spread"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type Server struct {
	builder      *report.Builder
	reload       *ReloadManager
	riskFreeRate float64
	logger       *zap.Logger
}

// NewServer creates a Server. reload may be nil, in which case the admin
// reload endpoint is not mounted.
func NewServer(builder *report.Builder, reload *ReloadManager, riskFreeRate float64, logger *zap.Logger) *Server {
	return &Server{
		builder:      builder,
		reload:       reload,
		riskFreeRate: riskFreeRate,
		logger:       logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status   string     `json:"status"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type ExpirationsResponse struct {
	Ticker      string   `json:"ticker"`
	AsOf        string   `json:"as_of"`
	Expirations []string `json:"expirations"`
}

type SpreadRequest struct {
	spread.Position
	Samples int `json:"samples"`
}

// PriceRequest describes one option to value. Years takes precedence over
// Days; Rate defaults to the configured risk-free rate.
type PriceRequest struct {
	Type       string   `json:"type"`
	Spot       float64  `json:"spot"`
	Strike     float64  `json:"strike"`
	Days       *int     `json:"days"`
	Years      *float64 `json:"years"`
	Rate       *float64 `json:"rate"`
	Volatility float64  `json:"volatility"`
}

type PriceResponse struct {
	Type      pricing.OptionType `json:"type"`
	Inputs    pricing.Inputs     `json:"inputs"`
	Price     float64            `json:"price"`
	Intrinsic float64            `json:"intrinsic"`
	Greeks    pricing.Greeks     `json:"greeks"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.reload != nil {
		loadedAt := s.reload.LoadedAt()
		resp.LoadedAt = &loadedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetChain handles GET /v1/chains/{ticker}/{expiration}?as_of=&strikes=
func (s *Server) GetChain(w http.ResponseWriter, r *http.Request) {
	expiration, err := data.ParseDate(chi.URLParam(r, "expiration"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: expiration must be YYYY-MM-DD", errBadRequest))
		return
	}
	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	strikes := 0
	if raw := r.URL.Query().Get("strikes"); raw != "" {
		strikes, err = strconv.Atoi(raw)
		if err != nil || strikes < 1 {
			s.writeError(w, fmt.Errorf("%w: strikes must be a positive integer", errBadRequest))
			return
		}
	}

	rep, err := s.builder.Build(r.Context(), report.Request{
		Ticker:           chi.URLParam(r, "ticker"),
		Expiration:       expiration,
		AsOf:             asOf,
		StrikesAroundATM: strikes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetExpirations handles GET /v1/expirations/{ticker}?as_of=
func (s *Server) GetExpirations(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ticker := data.NormalizeTicker(chi.URLParam(r, "ticker"))
	exps, err := s.builder.Expirations(r.Context(), ticker, asOf)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := ExpirationsResponse{
		Ticker:      ticker,
		AsOf:        asOf.Format(data.DateLayout),
		Expirations: make([]string, 0, len(exps)),
	}
	for _, e := range exps {
		resp.Expirations = append(resp.Expirations, e.Format(data.DateLayout))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AnalyzeSpread handles POST /v1/spreads/analyze
func (s *Server) AnalyzeSpread(w http.ResponseWriter, r *http.Request) {
	var req SpreadRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Contracts == 0 {
		req.Contracts = 1
	}
	analysis, err := spread.Analyze(req.Position, req.Samples)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// PriceOption handles POST /v1/price
func (s *Server) PriceOption(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	typ, err := pricing.ParseOptionType(req.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}

	in := pricing.Inputs{
		Spot:       req.Spot,
		Strike:     req.Strike,
		Rate:       s.riskFreeRate,
		Volatility: req.Volatility,
	}
	if req.Rate != nil {
		in.Rate = *req.Rate
	}
	switch {
	case req.Years != nil:
		in.Years = *req.Years
	case req.Days != nil:
		in.Years = daysToYears(*req.Days)
	default:
		s.writeError(w, fmt.Errorf("%w: one of days or years is required", errBadRequest))
		return
	}

	res, err := pricing.Evaluate(in, typ)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PriceResponse{
		Type:      typ,
		Inputs:    in,
		Price:     res.Price,
		Intrinsic: pricing.Intrinsic(in.Spot, in.Strike, typ),
		Greeks:    res.Greeks,
	})
}

// Reload handles POST /v1/admin/reload
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	result, err := s.reload.Reload(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		cal := s.builder.Calendar()
		return cal.LatestMarketDay(cal.Today()), nil
	}
	asOf, err := data.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of must be YYYY-MM-DD", errBadRequest)
	}
	return asOf, nil
}

// daysToYears floors same-day contracts to MinYears; negative days are expired.
func daysToYears(days int) float64 {
	if days < 0 {
		return 0
	}
	if days == 0 {
		return pricing.MinYears
	}
	return float64(days) / pricing.DaysPerYear
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return nil
}

func statusFor(err error) int {
	var verr *spread.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, pricing.ErrInvalidOptionType),
		errors.Is(err, report.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrDataUnavailable),
		errors.Is(err, data.ErrNoSnapshots):
		return http.StatusNotFound
	case errors.Is(err, ErrReloadInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
