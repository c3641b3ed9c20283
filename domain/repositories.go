package domain

import "context"

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// SessionRepository persists login sessions. Invalidate is the only mutation
// after creation; it must be idempotent and must never resurrect a session.
type SessionRepository interface {
	StoreSession(ctx context.Context, session *Session) error
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	ListActiveByUserID(ctx context.Context, userID string) ([]*Session, error)
	Invalidate(ctx context.Context, id string) error
}

// ProductRepository persists products.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProductByID(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, limit, offset int64) ([]*Product, int64, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id string) error
}
