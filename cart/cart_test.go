package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"vitrin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestComputeTotal(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	products := map[primitive.ObjectID]models.Product{
		a: {ID: a, Name: "productA", Price: 10},
		b: {ID: b, Name: "productB", Price: 2.5},
	}

	items := []models.CartItem{
		{ProductID: a, Quantity: 3},
		{ProductID: b, Quantity: 2},
	}
	assert.Equal(t, 35.0, computeTotal(items, products))
}

func TestComputeTotal_SkipsMissingProducts(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	gone := primitive.NewObjectID()
	products := map[primitive.ObjectID]models.Product{
		a: {ID: a, Price: 7},
	}

	items := []models.CartItem{
		{ProductID: a, Quantity: 1},
		{ProductID: gone, Quantity: 5},
	}
	assert.Equal(t, 7.0, computeTotal(items, products))
}

func TestComputeTotal_Empty(t *testing.T) {
	t.Parallel()
	assert.Zero(t, computeTotal(nil, nil))
}

func TestResolveItems(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	gone := primitive.NewObjectID()
	products := map[primitive.ObjectID]models.Product{
		a: {ID: a, Name: "productA", Price: 10},
	}

	resolved := resolveItems([]models.CartItem{
		{ProductID: a, Quantity: 2},
		{ProductID: gone, Quantity: 1},
	}, products)

	require.Len(t, resolved, 1)
	assert.Equal(t, "productA", resolved[0].Product.Name)
	assert.Equal(t, 2, resolved[0].Quantity)
}

func TestMergeItem(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	items := mergeItem(nil, a, 2)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	// adding the same product increments rather than duplicating
	items = mergeItem(items, a, 1)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	items = mergeItem(items, b, 4)
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[1].Quantity)
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	tests := []struct {
		name      string
		qty       int
		target    primitive.ObjectID
		wantFound bool
		wantItems int
	}{
		{name: "overwrites existing quantity", qty: 7, target: a, wantFound: true, wantItems: 2},
		{name: "zero quantity removes the line item", qty: 0, target: a, wantFound: true, wantItems: 1},
		{name: "negative quantity removes the line item", qty: -3, target: a, wantFound: true, wantItems: 1},
		{name: "unknown product leaves items untouched", qty: 2, target: primitive.NewObjectID(), wantFound: false, wantItems: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []models.CartItem{
				{ProductID: a, Quantity: 1},
				{ProductID: b, Quantity: 4},
			}
			got, found := setQuantity(items, tt.target, tt.qty)

			assert.Equal(t, tt.wantFound, found)
			require.Len(t, got, tt.wantItems)
			if tt.wantFound && tt.qty > 0 {
				assert.Equal(t, tt.qty, got[0].Quantity)
			}
			if tt.wantFound && tt.qty <= 0 {
				// only b survives
				assert.Equal(t, b, got[0].ProductID)
			}
		})
	}
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: a, Quantity: 1},
		{ProductID: b, Quantity: 4},
	}

	got := removeItem(items, a)
	require.Len(t, got, 1)
	assert.Equal(t, b, got[0].ProductID)
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	t.Parallel()

	a := primitive.NewObjectID()
	items := []models.CartItem{{ProductID: a, Quantity: 2}}

	got := removeItem(items, primitive.NewObjectID())
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].ProductID)
	assert.Equal(t, 2, got[0].Quantity)

	assert.Empty(t, removeItem(nil, a))
}

func TestHasStock(t *testing.T) {
	t.Parallel()

	p := models.Product{Stock: 5}
	assert.True(t, hasStock(p, 5))
	assert.True(t, hasStock(p, 1))
	assert.False(t, hasStock(p, 6))
	assert.False(t, hasStock(models.Product{}, 1))
}

func TestUserLocks_SerializesSameUser(t *testing.T) {
	t.Parallel()

	locks := newUserLocks()
	var counter int
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestUserLocks_ReusesMutexPerKey(t *testing.T) {
	t.Parallel()

	locks := newUserLocks()
	assert.Same(t, locks.get("u1"), locks.get("u1"))
	assert.NotSame(t, locks.get("u1"), locks.get("u2"))
}

func TestAddToCart_RejectsBadInput(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "invalid json", body: "{", wantCode: http.StatusBadRequest},
		{name: "zero quantity", body: `{"productId":"x","quantity":0}`, wantCode: http.StatusBadRequest},
		{name: "negative quantity", body: `{"productId":"x","quantity":-2}`, wantCode: http.StatusBadRequest},
		{name: "malformed product id", body: `{"productId":"nothex","quantity":1}`, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.AddToCart(rec, req, nil)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestUpdateCartItem_RejectsBadInput(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/cart", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.UpdateCartItem(rec, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/cart", strings.NewReader(`{"productId":"nothex","quantity":1}`))
	rec = httptest.NewRecorder()
	h.UpdateCartItem(rec, req, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
