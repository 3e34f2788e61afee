package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-catalog/internal/observability"
	"github.com/odyssey-erp/odyssey-catalog/internal/platform/httpx"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	maxImportBytes   = 10 << 20

	importRateLimit  = 5
	importRateWindow = time.Minute
)

// Handler wires the catalog HTTP endpoints. Payload messages keep the wording
// of the existing catalog frontend, which is Chinese.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. Metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   metrics,
		validator: validator.New(),
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type listResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    []Product `json:"data"`
	Total   int       `json:"total"`
}

// MountRoutes registers the catalog routes. The CSV import endpoint gets its
// own tighter rate limit since each call can fan out into many inserts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.handleList)
	r.Post("/products", h.handleCreate)
	r.Get("/products/{id}", h.handleGet)
	r.Put("/products/{id}", h.handleUpdate)
	r.Delete("/products/{id}", h.handleDelete)
	r.Get("/categories", h.handleCategories)
	r.Get("/product-types", h.handleProductTypes)

	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(importRateLimit, importRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/import-csv", h.handleImportCSV)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, ok := h.intParam(w, q.Get("skip"), 0, 0, -1)
	if !ok {
		return
	}
	limit, ok := h.intParam(w, q.Get("limit"), defaultListLimit, 1, maxListLimit)
	if !ok {
		return
	}

	filter := SearchFilter{
		Name:        q.Get("name"),
		Category:    q.Get("category"),
		ProductType: q.Get("product_type"),
		Offset:      skip,
		Limit:       limit,
	}
	if filter.MinPrice, ok = h.priceParam(w, q.Get("min_price")); !ok {
		return
	}
	if filter.MaxPrice, ok = h.priceParam(w, q.Get("max_price")); !ok {
		return
	}

	products, total, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list products", err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Success: true,
		Message: fmt.Sprintf("成功获取%d个产品", len(products)),
		Data:    products,
		Total:   total,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var patch ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	found, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.respondError(w, "delete product", err)
		return
	}
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "产品不存在")
		return
	}
	httpx.JSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "产品删除成功",
		Data:    map[string]int64{"deleted_id": id},
	})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.Categories(r.Context())
	if err != nil {
		h.respondError(w, "list categories", err)
		return
	}
	if values == nil {
		values = []string{}
	}
	httpx.JSON(w, http.StatusOK, values)
}

func (h *Handler) handleProductTypes(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.ProductTypes(r.Context())
	if err != nil {
		h.respondError(w, "list product types", err)
		return
	}
	if values == nil {
		values = []string{}
	}
	httpx.JSON(w, http.StatusOK, values)
}

func (h *Handler) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing file upload")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "只支持CSV文件")
		return
	}

	result := h.service.BulkImportCSV(r.Context(), file)
	h.metrics.CountImportRows(result.SuccessCount, result.ErrorCount)
	httpx.JSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: fmt.Sprintf("导入完成: 成功%d条, 失败%d条", result.SuccessCount, result.ErrorCount),
		Data:    result,
	})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return 0, false
	}
	return id, true
}

// intParam parses a bounded integer query parameter. max < 0 means unbounded.
func (h *Handler) intParam(w http.ResponseWriter, raw string, def, min, max int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || (max >= 0 && v > max) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("query parameter out of range: %s", raw))
		return 0, false
	}
	return v, true
}

func (h *Handler) priceParam(w http.ResponseWriter, raw string) (*decimal.Decimal, bool) {
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("invalid price bound: %s", raw))
		return nil, false
	}
	return &d, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "产品不存在")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
