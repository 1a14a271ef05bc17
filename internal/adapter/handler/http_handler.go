package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/core/service"
	"github.com/rl1809/supply-chain/internal/port"
)

// CallerHeader carries the caller identity supplied by the execution
// environment.
const CallerHeader = "X-Caller-Address"

type HTTPHandler struct {
	registry *service.Service
	logger   *slog.Logger
}

type AddItemHTTPRequest struct {
	Name  string `json:"name"`
	Price uint64 `json:"price"`
}

type AddItemHTTPResponse struct {
	Sku uint64 `json:"sku"`
}

type BuyItemHTTPRequest struct {
	RequestID string `json:"request_id"`
	Amount    uint64 `json:"amount"`
}

type ItemHTTPResponse struct {
	Name      string `json:"name"`
	Sku       uint64 `json:"sku"`
	Price     uint64 `json:"price"`
	State     uint8  `json:"state"`
	StateName string `json:"state_name"`
	Seller    string `json:"seller"`
	Buyer     string `json:"buyer"`
}

type EventHTTPResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Sku        uint64 `json:"sku"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurred_at"`
}

type StatusHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func NewHTTPHandler(registry *service.Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{registry: registry, logger: logger}
}

// Register mounts the registry routes on r.
func (h *HTTPHandler) Register(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/registry", h.Registry)
		r.Get("/accounts/{address}/balance", h.Balance)
		r.Post("/items", h.AddItem)
		r.Route("/items/{sku}", func(r chi.Router) {
			r.Get("/", h.FetchItem)
			r.Get("/history", h.History)
			r.Post("/buy", h.BuyItem)
			r.Post("/ship", h.ShipItem)
			r.Post("/receive", h.ReceiveItem)
		})
	})
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req AddItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusHTTPResponse{Message: "invalid request body"})
		return
	}

	sku, err := h.registry.AddItem(r.Context(), caller, req.Name, req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AddItemHTTPResponse{Sku: sku})
}

func (h *HTTPHandler) BuyItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	sku, ok := skuFrom(w, r)
	if !ok {
		return
	}

	var req BuyItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusHTTPResponse{Message: "invalid request body"})
		return
	}

	err := h.registry.BuyItem(r.Context(), service.BuyRequest{
		RequestID: req.RequestID,
		Caller:    caller,
		Sku:       sku,
		Amount:    req.Amount,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusHTTPResponse{Success: true, Message: "item purchased"})
}

func (h *HTTPHandler) ShipItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.registry.ShipItem, "item shipped")
}

func (h *HTTPHandler) ReceiveItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.registry.ReceiveItem, "item received")
}

func (h *HTTPHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller domain.Address, sku uint64) error, message string) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	sku, ok := skuFrom(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), caller, sku); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusHTTPResponse{Success: true, Message: message})
}

func (h *HTTPHandler) FetchItem(w http.ResponseWriter, r *http.Request) {
	sku, ok := skuFrom(w, r)
	if !ok {
		return
	}

	item, err := h.registry.FetchItem(r.Context(), sku)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ItemHTTPResponse{
		Name:      item.Name,
		Sku:       item.Sku,
		Price:     item.Price,
		State:     uint8(item.State),
		StateName: item.State.String(),
		Seller:    string(item.Seller),
		Buyer:     string(item.Buyer),
	})
}

func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	sku, ok := skuFrom(w, r)
	if !ok {
		return
	}

	events, err := h.registry.History(r.Context(), sku)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]EventHTTPResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, EventHTTPResponse{
			ID:         e.ID.String(),
			Kind:       e.Kind.String(),
			Sku:        e.Sku,
			Actor:      string(e.Actor),
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) Balance(w http.ResponseWriter, r *http.Request) {
	address := domain.Address(chi.URLParam(r, "address"))

	balance, err := h.registry.Balance(r.Context(), address)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"address": string(address), "balance": balance})
}

func (h *HTTPHandler) Registry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":    string(h.registry.Owner()),
		"escrow":   string(h.registry.Escrow()),
		"next_sku": h.registry.NextSku(),
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	reason := service.Reason(err)
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case reason == "authorization":
		status, message = http.StatusForbidden, err.Error()
	case reason == "not_found", errors.Is(err, port.ErrUnknownAccount):
		status, message, reason = http.StatusNotFound, err.Error(), "not_found"
	case reason == "state":
		status, message = http.StatusConflict, err.Error()
	case reason == "duplicate":
		status, message = http.StatusConflict, "duplicate request"
	case reason == "payment":
		status, message = http.StatusPaymentRequired, err.Error()
	case reason == "settlement":
		status, message = http.StatusUnprocessableEntity, err.Error()
	case reason == "closed":
		status, message = http.StatusServiceUnavailable, "registry closed"
	case errors.Is(err, service.ErrHistoryUnavailable):
		status, message, reason = http.StatusNotFound, err.Error(), "not_found"
	default:
		h.logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, StatusHTTPResponse{Success: false, Message: message, Reason: reason})
}

func callerFrom(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	caller := domain.Address(r.Header.Get(CallerHeader))
	if caller.IsZero() {
		writeJSON(w, http.StatusUnauthorized, StatusHTTPResponse{Message: "missing " + CallerHeader + " header", Reason: "authorization"})
		return "", false
	}
	return caller, true
}

func skuFrom(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	sku, err := strconv.ParseUint(chi.URLParam(r, "sku"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StatusHTTPResponse{Message: "invalid sku"})
		return 0, false
	}
	return sku, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
