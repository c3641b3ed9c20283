package domain

import "time"

// Product is the single resource entity exposed by the CRUD surface.
type Product struct {
	ID          string    `bson:"_id,omitempty"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Price       float64   `bson:"price"`
	Quantity    int       `bson:"quantity"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}
