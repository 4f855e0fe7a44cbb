package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/finopshq/budgetwatch/pkg/model"
	"github.com/finopshq/budgetwatch/pkg/monitor"
	"github.com/finopshq/budgetwatch/pkg/storage"
)

const dateLayout = "2006-01-02"

// Server exposes the budget API over HTTP.
type Server struct {
	service *monitor.Service
	monitor *monitor.Monitor
	ledger  storage.CostLedger
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewServer creates an API server. gatherer backs the /metrics endpoint.
func NewServer(service *monitor.Service, mon *monitor.Monitor, ledger storage.CostLedger, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		monitor: mon,
		ledger:  ledger,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes(gatherer)
	return s
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("GET /api/v1/budgets", s.handleListBudgets)
	s.mux.HandleFunc("POST /api/v1/budgets", s.handleCreateBudget)
	s.mux.HandleFunc("GET /api/v1/budgets/{id}", s.handleGetBudget)
	s.mux.HandleFunc("PUT /api/v1/budgets/{id}", s.handleUpdateBudget)
	s.mux.HandleFunc("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)
	s.mux.HandleFunc("GET /api/v1/budgets/{id}/usage", s.handleBudgetUsage)
	s.mux.HandleFunc("GET /api/v1/budgets/{id}/alerts", s.handleBudgetAlerts)
	s.mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	s.mux.HandleFunc("POST /api/v1/check", s.handleCheck)
	s.mux.HandleFunc("POST /api/v1/costs", s.handleRecordCost)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// budgetPayload is the wire shape for create and update requests. Dates are
// plain calendar dates.
type budgetPayload struct {
	Name        string                `json:"name"`
	Type        model.BudgetType      `json:"budget_type"`
	TargetID    string                `json:"target_id"`
	Amount      decimal.Decimal       `json:"amount"`
	PeriodType  model.PeriodType      `json:"period_type"`
	StartDate   string                `json:"start_date"`
	EndDate     string                `json:"end_date,omitempty"`
	Currency    string                `json:"currency,omitempty"`
	Description string                `json:"description,omitempty"`
	Thresholds  []model.ThresholdSpec `json:"thresholds,omitempty"`
}

func (p budgetPayload) toRequest() (monitor.BudgetRequest, error) {
	req := monitor.BudgetRequest{
		Name:        p.Name,
		Type:        p.Type,
		TargetID:    p.TargetID,
		Amount:      p.Amount,
		PeriodType:  p.PeriodType,
		Currency:    p.Currency,
		Description: p.Description,
		Thresholds:  p.Thresholds,
	}
	if p.StartDate != "" {
		start, err := time.Parse(dateLayout, p.StartDate)
		if err != nil {
			return req, err
		}
		req.StartDate = start
	}
	if p.EndDate != "" {
		end, err := time.Parse(dateLayout, p.EndDate)
		if err != nil {
			return req, err
		}
		req.EndDate = &end
	}
	return req, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.service.ListActive(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if budgets == nil {
		budgets = []model.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		http.Error(w, "invalid date format, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	budget, err := s.service.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		http.Error(w, "invalid date format, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	budget, err := s.service.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.monitor.UsageByID(r.Context(), r.PathValue("id"), time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.service.Alerts(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if alerts == nil {
		alerts = []model.BudgetAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.monitor.Dashboard(r.Context(), time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	result, err := s.monitor.RunCheck(r.Context(), time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}

	response := map[string]any{
		"budgets_checked": result.BudgetsChecked,
		"alerts_emitted":  result.AlertsEmitted,
		"suppressed":      result.Suppressed,
		"failures":        len(result.Failures),
	}
	if err := result.Err(); err != nil {
		response["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, response)
}

type costPayload struct {
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

func (s *Server) handleRecordCost(w http.ResponseWriter, r *http.Request) {
	var payload costPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	day, err := time.Parse(dateLayout, payload.Date)
	if err != nil {
		http.Error(w, "invalid date format, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if payload.Amount.Sign() < 0 {
		http.Error(w, "amount must not be negative", http.StatusBadRequest)
		return
	}

	cost := &model.DailyCost{
		CostDate:  day,
		TotalCost: payload.Amount,
		Currency:  payload.Currency,
	}
	if err := s.ledger.RecordDailyCost(r.Context(), cost); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cost)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "budget not found", http.StatusNotFound)
	case errors.Is(err, monitor.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
