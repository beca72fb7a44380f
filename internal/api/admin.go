package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/storefront/internal/auth"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/simulator"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

const (
	dashboardTopProducts    = 5
	dashboardRecentCustomer = 5
)

// orderView is an order as the admin list shows it.
type orderView struct {
	models.Order
	DisplayID string `json:"display_id"`
	Date      string `json:"date"`
}

func orderViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView{Order: o, DisplayID: o.DisplayID(), Date: o.DisplayDate()})
	}
	return views
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("cursor") || query.Has("limit") {
		h.listOrdersCursor(w, r)
		return
	}

	if h.Feed != nil {
		if snap, ok := h.Feed.Current(); ok {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"orders":     orderViews(snap.Orders),
				"fetched_at": snap.FetchedAt,
				"seq":        snap.Seq,
			})
			return
		}
	}

	orders, err := h.Admin.ListOrders(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": orderViews(orders)})
}

func (h *handler) listOrdersCursor(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	page, err := h.Admin.ListOrdersCursor(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if orders, ok := page.Items.([]models.Order); ok {
		page.Items = orderViews(orders)
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Admin.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orderViews([]models.Order{*order})[0])
}

func (h *handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.Admin.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orderViews([]models.Order{*order})[0])
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.Admin.GetDashboardSummary(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	top, err := h.Admin.TopProducts(ctx, dashboardTopProducts)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	recent, err := h.Admin.ListCustomers(ctx, 1, dashboardRecentCustomer)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary":          summary,
		"top_products":     top,
		"recent_customers": recent.Items,
	})
}

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := h.Admin.ListCustomers(r.Context(), page, pageSize)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := h.Admin.GetCustomer(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// adminProducts pages through the stored products, including ones the
// storefront catalog has not picked up yet.
func (h *handler) adminProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := h.Admin.ListProducts(r.Context(), page, pageSize)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if !decodeJSON(w, r, &p) {
		return
	}

	if strings.TrimSpace(p.Name) == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return
	}
	if p.Price.LessThan(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	created, err := h.Admin.CreateProduct(r.Context(), p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var u store.ProductUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return
	}
	if u.Price != nil && u.Price.LessThan(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	product, err := h.Admin.UpdateProduct(r.Context(), id, u)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.Admin.DeleteProduct(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) simulatorStatus(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).IsAdmin() {
		respondErr(w, r, simulator.ErrNotAuthorized)
		return
	}
	respondJSON(w, http.StatusOK, h.Simulator.Status())
}

func (h *handler) startSimulator(w http.ResponseWriter, r *http.Request) {
	if err := h.Simulator.Start(auth.FromContext(r.Context())); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, h.Simulator.Status())
}

func (h *handler) stopSimulator(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).IsAdmin() {
		respondErr(w, r, simulator.ErrNotAuthorized)
		return
	}
	h.Simulator.Stop()
	respondJSON(w, http.StatusOK, h.Simulator.Status())
}

// streamOrders pushes every feed snapshot as a server-sent event. Each event
// carries the complete order list.
func (h *handler) streamOrders(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		respondError(w, http.StatusServiceUnavailable, "Order feed unavailable")
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Printf("order stream: clear write deadline: %v", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	ctx := r.Context()
	updates := h.Feed.Subscribe(ctx)
	ticker := time.NewTicker(h.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]interface{}{
				"orders":     orderViews(snap.Orders),
				"fetched_at": snap.FetchedAt,
				"seq":        snap.Seq,
			})
			if err != nil {
				log.Printf("Error encoding order snapshot: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: orders\ndata: %s\n\n", data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
