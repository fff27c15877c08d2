package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bizledger/internal/domain"
	"bizledger/internal/repository"
	"bizledger/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc    *service.Service
	logger *zap.Logger
	now    func() time.Time
}

func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type clientRequest struct {
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (req clientRequest) input() repository.ClientInput {
	return repository.ClientInput{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		Address:     req.Address,
		Notes:       req.Notes,
	}
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListClients(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	client, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	client, err := h.svc.CreateClient(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	client, err := h.svc.UpdateClient(r.Context(), id, req.input())
	if err != nil {
		h.fail(w, r, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		h.fail(w, r, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type productRequest struct {
	Name       string                   `json:"name"`
	Type       string                   `json:"type"`
	CostPrice  decimal.Decimal          `json:"cost_price"`
	SalePrice  decimal.Decimal          `json:"sale_price"`
	Quantity   int                      `json:"quantity"`
	Attributes domain.ProductAttributes `json:"attributes"`
}

func (req productRequest) input() repository.ProductInput {
	return repository.ProductInput{
		Name:       req.Name,
		Type:       domain.ProductType(req.Type),
		CostPrice:  req.CostPrice,
		SalePrice:  req.SalePrice,
		Quantity:   req.Quantity,
		Attributes: req.Attributes,
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.svc.ListProducts(r.Context(), repository.ProductListFilter{
		Search: query.Get("search"),
		Type:   domain.ProductType(strings.TrimSpace(query.Get("type"))),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.svc.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		h.fail(w, r, err, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.svc.ImportProducts(r.Context(), header.Filename, file)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_name":  header.Filename,
		"total_rows": result.TotalRows,
		"created":    result.Created,
		"skipped":    result.Skipped,
		"errors":     result.Errors,
	})
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	filter, err := h.saleFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListSales(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "sale not found")
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSaleInput
	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientID, err = parseID(req.ClientID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid client_id")
		return
	}
	for i := range req.Items {
		if req.Items[i].ProductID, err = parseID(req.Items[i].ProductID); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("item %d: invalid product_id", i+1))
			return
		}
	}
	sale, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		// the wrapped error names the missing client or product
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	filter, err := h.saleFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	buf := &bytes.Buffer{}
	if err := h.svc.ExportSales(r.Context(), filter, buf); err != nil {
		h.fail(w, r, err, "")
		return
	}
	fileName := fmt.Sprintf("sales-%s.xlsx", h.now().In(h.svc.Location()).Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) RecentSales(w http.ResponseWriter, r *http.Request) {
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.RecentSales(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) MonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	at, err := service.ParseMonthParam(r.URL.Query().Get("date"), h.svc.Location(), h.now())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	points, err := h.svc.MonthlyAnalytics(r.Context(), at)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": points})
}

func (h *Handler) saleFilter(r *http.Request) (repository.SaleListFilter, error) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		return repository.SaleListFilter{}, err
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		return repository.SaleListFilter{}, err
	}
	from, err := parseOptionalTime(query.Get("from"), h.svc.Location())
	if err != nil {
		return repository.SaleListFilter{}, fmt.Errorf("invalid from: %w", err)
	}
	to, err := parseOptionalTime(query.Get("to"), h.svc.Location())
	if err != nil {
		return repository.SaleListFilter{}, fmt.Errorf("invalid to: %w", err)
	}
	clientID := strings.TrimSpace(query.Get("client_id"))
	if clientID != "" {
		if clientID, err = parseID(clientID); err != nil {
			return repository.SaleListFilter{}, fmt.Errorf("invalid client_id")
		}
	}
	return repository.SaleListFilter{
		ClientID: clientID,
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// fail maps service errors onto status codes. Anything unexpected is logged
// and hidden behind a generic 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		if notFound == "" {
			notFound = err.Error()
		}
		writeError(w, http.StatusNotFound, notFound)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

// parseOptionalTime accepts RFC 3339 or a bare date, which is midnight in loc.
func parseOptionalTime(raw string, loc *time.Location) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return &parsed, nil
	}
	return nil, fmt.Errorf("invalid time")
}

func parseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid id")
	}
	return id.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
