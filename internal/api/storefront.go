package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/safar/storefront/internal/catalog"
	"github.com/safar/storefront/internal/models"
)

const (
	cartSessionHeader = "X-Cart-Session"
	featuredCount     = 4
)

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.Catalog.List(r.Context(), q)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

func (h *handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	n := featuredCount
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			n = v
		}
	}

	products, err := h.Catalog.Featured(r.Context(), n)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.Categories(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *handler) listMerchants(w http.ResponseWriter, r *http.Request) {
	merchants, err := h.Catalog.Merchants(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"merchants": merchants})
}

// cartKey reads the cart session header. With issue set, a missing header gets
// a fresh session id, returned in the response header.
func cartKey(w http.ResponseWriter, r *http.Request, issue bool) (string, bool) {
	key := r.Header.Get(cartSessionHeader)
	if key == "" && issue {
		key = uuid.NewString()
		w.Header().Set(cartSessionHeader, key)
		return key, true
	}
	if _, err := uuid.Parse(key); err != nil {
		respondError(w, http.StatusBadRequest, "Missing or invalid "+cartSessionHeader+" header")
		return "", false
	}
	w.Header().Set(cartSessionHeader, key)
	return key, true
}

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, true)
	if !ok {
		return
	}

	result, err := h.Carts.Get(r.Context(), key)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	result, err := h.Carts.Add(r.Context(), key, *product, req.Quantity)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) setCartItem(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	productID, err := int64Param(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Carts.SetQuantity(r.Context(), key, productID, req.Quantity)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	productID, err := int64Param(r, "productID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	result, err := h.Carts.Remove(r.Context(), key, productID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	result, err := h.Carts.Clear(r.Context(), key)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	view, err := h.Checkout.View(r.Context(), key)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *handler) submitShipping(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	var info models.ShippingInfo
	if !decodeJSON(w, r, &info) {
		return
	}

	view, err := h.Checkout.SubmitShipping(r.Context(), key, info)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	key, ok := cartKey(w, r, false)
	if !ok {
		return
	}

	var payment models.PaymentDetails
	if !decodeJSON(w, r, &payment) {
		return
	}

	view, err := h.Checkout.PlaceOrder(r.Context(), key, payment)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}
