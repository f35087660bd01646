package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"vitrin/cart"
	"vitrin/db"
	"vitrin/middleware"
	"vitrin/models"
	"vitrin/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handler turns carts into orders and manages their lifecycle.
type Handler struct {
	Store *db.Store
	Cart  *cart.Handler
}

func NewHandler(store *db.Store, cartHandler *cart.Handler) *Handler {
	return &Handler{Store: store, Cart: cartHandler}
}

// decrementStock consumes stock for one line item. The filter requires
// enough stock, so the decrement never drives stock negative.
func (h *Handler) decrementStock(ctx context.Context, productID primitive.ObjectID, qty int) (bool, error) {
	res, err := h.Store.Products.UpdateOne(ctx,
		bson.M{"_id": productID, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// restock reverses decrements already applied when a later item fails.
// Best effort: there is no multi-document transaction here.
func (h *Handler) restock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if _, err := h.Store.Products.UpdateOne(ctx,
			bson.M{"_id": item.ProductID},
			bson.M{"$inc": bson.M{"stock": item.Quantity}},
		); err != nil {
			log.Printf("restock failed for product %s: %v", item.ProductID.Hex(), err)
		}
	}
}

// checkoutReady reports whether the cart has anything to order.
func checkoutReady(c models.Cart) bool {
	return len(c.Items) > 0
}

// CreateOrder snapshots the user's cart into an immutable order, consumes
// stock, and resets the cart.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	unlock := h.Cart.LockUser(userID)
	defer unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var c models.Cart
	err := h.Store.Carts.FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if err != nil && err != mongo.ErrNoDocuments {
		utils.RespondWithServerError(w, err)
		return
	}
	if err == mongo.ErrNoDocuments || !checkoutReady(c) {
		utils.RespondWithError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	// Snapshot line items against live product data.
	now := time.Now()
	order := models.Order{
		Number:    uuid.NewString(),
		UserID:    userID,
		Items:     make([]models.OrderItem, 0, len(c.Items)),
		Status:    models.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var decremented []models.OrderItem
	for _, item := range c.Items {
		var product models.Product
		if err := h.Store.Products.FindOne(ctx, bson.M{"_id": item.ProductID}).Decode(&product); err != nil {
			if err == mongo.ErrNoDocuments {
				// Product removed from the catalog since it was added;
				// drop the stale line item.
				continue
			}
			h.restock(ctx, decremented)
			utils.RespondWithServerError(w, err)
			return
		}

		ok, err := h.decrementStock(ctx, product.ID, item.Quantity)
		if err != nil {
			h.restock(ctx, decremented)
			utils.RespondWithServerError(w, err)
			return
		}
		if !ok {
			h.restock(ctx, decremented)
			utils.RespondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("Not enough stock available for %s", product.Name))
			return
		}

		snapshot := models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		}
		decremented = append(decremented, snapshot)
		order.Items = append(order.Items, snapshot)
		order.TotalAmount += product.Price * float64(item.Quantity)
	}

	if len(order.Items) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	res, err := h.Store.Orders.InsertOne(ctx, order)
	if err != nil {
		h.restock(ctx, decremented)
		utils.RespondWithServerError(w, err)
		return
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	// Reset (not delete) the source cart.
	if _, err := h.Store.Carts.UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "totalAmount": 0.0, "updatedAt": now}},
	); err != nil {
		log.Printf("CreateOrder cart reset failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Order created",
		"order":   order,
	})
}

func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := h.Store.Orders.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Order
	if err := cursor.All(ctx, &list); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	if len(list) == 0 {
		list = []models.Order{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// fetchOwned loads an order enforcing the ownership check: a customer only
// ever sees their own orders, an admin sees any. Missing and foreign orders
// are indistinguishable to the caller.
func (h *Handler) fetchOwned(ctx context.Context, id string) (models.Order, bool) {
	var order models.Order
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return order, false
	}

	filter := bson.M{"_id": orderID}
	if middleware.RoleFromContext(ctx) != models.RoleAdmin {
		userID, _ := middleware.UserIDFromContext(ctx)
		filter["userId"] = userID
	}
	if err := h.Store.Orders.FindOne(ctx, filter).Decode(&order); err != nil {
		return order, false
	}
	return order, true
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, ok := h.fetchOwned(ctx, ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, order)
}

// GetAllOrders is the admin-only global listing.
func (h *Handler) GetAllOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := h.Store.Orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	defer cursor.Close(ctx)

	var list []models.Order
	if err := cursor.All(ctx, &list); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}
	if len(list) == 0 {
		list = []models.Order{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// UpdateOrderStatus moves an order through the status state machine,
// rejecting transitions outside the allowed set.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if !models.ValidOrderStatus(input.Status) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := h.Store.Orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		utils.RespondWithServerError(w, err)
		return
	}

	if !models.CanTransition(order.Status, input.Status) {
		utils.RespondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot change status from %s to %s", order.Status, input.Status))
		return
	}

	order.Status = input.Status
	order.UpdatedAt = time.Now()
	if _, err := h.Store.Orders.UpdateOne(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": order.Status, "updatedAt": order.UpdatedAt}},
	); err != nil {
		utils.RespondWithServerError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Order status updated",
		"order":   order,
	})
}
