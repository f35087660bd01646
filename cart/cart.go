package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vitrin/db"
	"vitrin/middleware"
	"vitrin/models"
	"vitrin/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handler maintains the one-cart-per-user collection.
type Handler struct {
	Store *db.Store
	locks *userLocks
}

func NewHandler(store *db.Store) *Handler {
	return &Handler{Store: store, locks: newUserLocks()}
}

// LockUser serializes cart access for a user. Exposed so checkout can hold
// the same lock while snapshotting and clearing the cart.
func (h *Handler) LockUser(userID primitive.ObjectID) func() {
	return h.locks.Lock(userID.Hex())
}

// fetchOrCreate returns the user's cart, creating an empty one on first
// access.
func (h *Handler) fetchOrCreate(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	var c models.Cart
	err := h.Store.Carts.FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if err == nil {
		return c, nil
	}
	if err != mongo.ErrNoDocuments {
		return c, err
	}

	c = models.Cart{
		UserID:    userID,
		Items:     []models.CartItem{},
		UpdatedAt: time.Now(),
	}
	res, insErr := h.Store.Carts.InsertOne(ctx, c)
	if insErr != nil {
		return c, insErr
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return c, nil
}

// resolveProducts batch-fetches the products referenced by the given items.
func (h *Handler) resolveProducts(ctx context.Context, items []models.CartItem) (map[primitive.ObjectID]models.Product, error) {
	resolved := make(map[primitive.ObjectID]models.Product, len(items))
	if len(items) == 0 {
		return resolved, nil
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	cursor, err := h.Store.Products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	for _, p := range products {
		resolved[p.ID] = p
	}
	return resolved, nil
}

// mergeItem increments the quantity of an existing line item or appends a
// new one; a product never appears in two line items.
func mergeItem(items []models.CartItem, productID primitive.ObjectID, qty int) []models.CartItem {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			return items
		}
	}
	return append(items, models.CartItem{ProductID: productID, Quantity: qty})
}

// setQuantity overwrites the quantity of an existing line item, removing it
// when qty drops to zero or below. The bool reports whether the item existed.
func setQuantity(items []models.CartItem, productID primitive.ObjectID, qty int) ([]models.CartItem, bool) {
	for i := range items {
		if items[i].ProductID == productID {
			if qty <= 0 {
				return append(items[:i], items[i+1:]...), true
			}
			items[i].Quantity = qty
			return items, true
		}
	}
	return items, false
}

// removeItem filters the product's line item out; removing an absent item
// leaves the slice unchanged.
func removeItem(items []models.CartItem, productID primitive.ObjectID) []models.CartItem {
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	return kept
}

// hasStock reports whether the product can cover the requested quantity.
func hasStock(p models.Product, qty int) bool {
	return p.Stock >= qty
}

// computeTotal sums price*quantity over items whose product still exists.
func computeTotal(items []models.CartItem, products map[primitive.ObjectID]models.Product) float64 {
	var total float64
	for _, item := range items {
		if p, ok := products[item.ProductID]; ok {
			total += p.Price * float64(item.Quantity)
		}
	}
	return total
}

func resolveItems(items []models.CartItem, products map[primitive.ObjectID]models.Product) []models.ResolvedCartItem {
	out := make([]models.ResolvedCartItem, 0, len(items))
	for _, item := range items {
		if p, ok := products[item.ProductID]; ok {
			out = append(out, models.ResolvedCartItem{Product: p, Quantity: item.Quantity})
		}
	}
	return out
}

func resolvedView(c models.Cart, products map[primitive.ObjectID]models.Product) models.ResolvedCart {
	return models.ResolvedCart{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       resolveItems(c.Items, products),
		TotalAmount: c.TotalAmount,
		UpdatedAt:   c.UpdatedAt,
	}
}

// save persists the cart's items and recomputed total.
func (h *Handler) save(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = time.Now()
	_, err := h.Store.Carts.UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{
			"items":       c.Items,
			"totalAmount": c.TotalAmount,
			"updatedAt":   c.UpdatedAt,
		}},
	)
	return err
}

// GetCart never fails for an authenticated user: the cart is created
// lazily on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c, err := h.fetchOrCreate(ctx, userID)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}

	products, err := h.resolveProducts(ctx, c.Items)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resolvedView(c, products))
}

type cartInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input cartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if input.Quantity <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	unlock := h.LockUser(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := h.Store.Products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		utils.RespondWithServerError(w, err)
		return
	}
	if !hasStock(product, input.Quantity) {
		utils.RespondWithError(w, http.StatusBadRequest, "Not enough stock available")
		return
	}

	c, err := h.fetchOrCreate(ctx, userID)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}

	c.Items = mergeItem(c.Items, productID, input.Quantity)

	products, err := h.resolveProducts(ctx, c.Items)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	c.TotalAmount = computeTotal(c.Items, products)

	if err := h.save(ctx, &c); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Item added to cart",
		"cart":    resolvedView(c, products),
	})
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input cartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found in cart")
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	unlock := h.LockUser(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Cart
	if err := h.Store.Carts.FindOne(ctx, bson.M{"userId": userID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Cart not found")
			return
		}
		utils.RespondWithServerError(w, err)
		return
	}

	// No stock re-check here: stock is enforced at add time and
	// authoritatively at checkout.
	items, found := setQuantity(c.Items, productID, input.Quantity)
	if !found {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found in cart")
		return
	}
	c.Items = items

	products, err := h.resolveProducts(ctx, c.Items)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	c.TotalAmount = computeTotal(c.Items, products)

	if err := h.save(ctx, &c); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Cart updated",
		"cart":    resolvedView(c, products),
	})
}

// RemoveFromCart filters the item out; removing an absent item is a no-op.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	// An unparseable id cannot match any line item, so it falls through
	// to the no-op path rather than erroring.
	productID, _ := primitive.ObjectIDFromHex(ps.ByName("productId"))

	userID, _ := middleware.UserIDFromContext(r.Context())
	unlock := h.LockUser(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Cart
	if err := h.Store.Carts.FindOne(ctx, bson.M{"userId": userID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Cart not found")
			return
		}
		utils.RespondWithServerError(w, err)
		return
	}

	c.Items = removeItem(c.Items, productID)

	products, err := h.resolveProducts(ctx, c.Items)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	c.TotalAmount = computeTotal(c.Items, products)

	if err := h.save(ctx, &c); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Item removed from cart",
		"cart":    resolvedView(c, products),
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	unlock := h.LockUser(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var c models.Cart
	if err := h.Store.Carts.FindOne(ctx, bson.M{"userId": userID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Cart not found")
			return
		}
		utils.RespondWithServerError(w, err)
		return
	}

	c.Items = []models.CartItem{}
	c.TotalAmount = 0

	if err := h.save(ctx, &c); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Cart cleared",
		"cart":    resolvedView(c, nil),
	})
}
