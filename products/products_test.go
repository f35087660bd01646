package products

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_Validation(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "missing name", body: `{"price":10,"stock":5}`},
		{name: "empty name", body: `{"name":"","price":10}`},
		{name: "negative price", body: `{"name":"widget","price":-1}`},
		{name: "negative stock", body: `{"name":"widget","price":1,"stock":-3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateProduct(rec, req, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestUpdateProduct_Validation(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)
	ps := httprouter.Params{{Key: "id", Value: "507f1f77bcf86cd799439011"}}

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "empty name", body: `{"name":""}`},
		{name: "negative price", body: `{"price":-0.5}`},
		{name: "negative stock", body: `{"stock":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/products/507f1f77bcf86cd799439011", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.UpdateProduct(rec, req, ps)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProductHandlers_MalformedID(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)
	ps := httprouter.Params{{Key: "id", Value: "not-an-object-id"}}

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetProduct(rec, httptest.NewRequest(http.MethodGet, "/api/products/x", nil), ps)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("update", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.UpdateProduct(rec, httptest.NewRequest(http.MethodPut, "/api/products/x", strings.NewReader("{}")), ps)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("delete", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.DeleteProduct(rec, httptest.NewRequest(http.MethodDelete, "/api/products/x", nil), ps)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
