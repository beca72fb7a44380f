package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/storefront/internal/cart"
	"github.com/safar/storefront/internal/checkout"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/simulator"
	"github.com/safar/storefront/internal/store"
)

const maxBodySize = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps a domain error to a status code. Unrecognized errors are
// logged and reported without detail.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *checkout.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidCursor):
		respondError(w, http.StatusBadRequest, "Invalid cursor")
	case errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrCustomerNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrWrongStage),
		errors.Is(err, database.ErrInsufficientStock):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, simulator.ErrNotAuthorized):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func int64Param(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
