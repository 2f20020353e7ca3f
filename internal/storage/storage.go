package storage

import (
	"context"
	"errors"

	"github.com/Odenfis/sedimApp/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidCompany  = errors.New("invalid company")
	ErrProductNotFound = errors.New("product not found")
)

// UserStorage manages application login accounts
type UserStorage interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// PriceStorage reads and updates product price tiers
type PriceStorage interface {
	ListPrices(ctx context.Context, company string) ([]model.PriceRow, error)
	UpsertPrices(ctx context.Context, codpro string, tiers [model.PriceTierCount]*float64) error
}

// ProductStorage maintains the product catalogue the price list is built from
type ProductStorage interface {
	UpsertProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, codpro string) (*model.Product, error)
}

// Storage is everything the relational database holds
type Storage interface {
	UserStorage
	PriceStorage
	ProductStorage
	Close() error
}
