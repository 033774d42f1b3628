package storage

import (
	"context"
	"errors"
)

// Keys the storefront keeps per shopper session.
const (
	KeyAuthFlag     = "roastDirectAuth"
	KeyAuthToken    = "authToken"
	KeyUserData     = "userData"
	KeyCart         = "roastDirectCart"
	KeyCheckoutForm = "checkoutFormData"
)

var ErrNotFound = errors.New("key not found")

// Store is durable key/value storage standing in for the browser's local storage.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type namespaced struct {
	store  Store
	prefix string
}

// Namespaced scopes every key of store to one shopper session.
func Namespaced(store Store, sessionID string) Store {
	return &namespaced{store: store, prefix: "session:" + sessionID + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}
