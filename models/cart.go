package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a single line item: a product reference plus quantity.
type CartItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Quantity  int                `json:"quantity" bson:"quantity"`
}

// Cart holds one user's pre-checkout items. TotalAmount is a cached
// value recomputed from live product prices on every mutation.
type Cart struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Items       []CartItem         `json:"items" bson:"items"`
	TotalAmount float64            `json:"totalAmount" bson:"totalAmount"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ResolvedCartItem is a line item with its product details joined in,
// returned by GET /api/cart.
type ResolvedCartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type ResolvedCart struct {
	ID          primitive.ObjectID `json:"id"`
	UserID      primitive.ObjectID `json:"userId"`
	Items       []ResolvedCartItem `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}
