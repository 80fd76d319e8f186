package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-catalog-browser/internal/domain"
	"pos-catalog-browser/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	productStore store.ProductStorer
	saleStore    store.SaleStorer
	pinger       store.Pinger
	validate     *validator.Validate
	logger       *zap.Logger
	serviceName  string
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(ps store.ProductStorer, ss store.SaleStorer, pinger store.Pinger, serviceName string, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		productStore: ps,
		saleStore:    ss,
		pinger:       pinger,
		validate:     validator.New(),
		logger:       logger,
		serviceName:  serviceName,
	}
}

// --- Helpers ---

// ErrorResponse is the failure body the POS browser reads its notification text from.
type ErrorResponse struct {
	Message string `json:"message"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Message: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

func parseProductID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Product Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("ListProducts store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	if products == nil { // Ensure empty list instead of null if store returns nil slice
		products = []domain.Product{}
	}
	h.respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("GetProductByID store operation failed", zap.Int64("product_id", productID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

// --- Sale Handlers ---

// SaleCreateInput defines the expected input for registering a sale.
type SaleCreateInput struct {
	PaymentType string `json:"paymentType" validate:"required,oneof=cash card"`
}

func (h *HTTPHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		h.respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input SaleCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	log := h.logger.With(
		zap.Int64("product_id", productID),
		zap.String("payment_type", input.PaymentType),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	sale, err := h.saleStore.RecordSale(r.Context(), productID, domain.PaymentType(input.PaymentType))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrProductNotFound):
			h.respondWithError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, store.ErrOutOfStock):
			h.respondWithError(w, http.StatusConflict, "Out of stock")
		default:
			log.Error("RecordSale store operation failed", zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Failed to register sale")
		}
		return
	}

	log.Info("sale registered", zap.Int64("sale_id", sale.ID))
	h.respondWithJSON(w, http.StatusCreated, sale)
}

// --- Health ---

func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbStatus := "healthy"
	if err := h.pinger.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
		h.logger.Warn("health check DB ping failed", zap.Error(err))
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{ // Always 200, but payload indicates detailed status
		"status":      "healthy",
		"serviceName": h.serviceName,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"database":    dbStatus,
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes consumed by the POS browser.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/healthz", h.Healthz)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts) // GET /api/products
		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)   // GET /api/products/{productId}
			r.Post("/sales", h.CreateSale) // POST /api/products/{productId}/sales
		})
	})
}

// RegisterImages serves product images from dir under /images/products/.
func RegisterImages(r chi.Router, dir string) {
	fs := http.StripPrefix("/images/products/", http.FileServer(http.Dir(dir)))
	r.Get("/images/products/*", fs.ServeHTTP)
	r.Head("/images/products/*", fs.ServeHTTP)
}
