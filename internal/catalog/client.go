// Package catalog looks up users and products on their owning services
// through the service invoker. The saga uses it for order validation and for
// freezing live prices at creation time.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hakkisagdic/otokoc-demo/internal/invoke"
)

const (
	userService    = "user-service"
	productService = "product-service"
)

var (
	ErrUserNotFound    = errors.New("catalog: user not found")
	ErrProductNotFound = errors.New("catalog: product not found")
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
}

type Client struct {
	inv invoke.Invoker
}

func NewClient(inv invoke.Invoker) *Client {
	return &Client{inv: inv}
}

func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	body, err := c.inv.Invoke(ctx, userService, "/api/users/"+userID, http.MethodGet, nil)
	if err != nil {
		if errors.Is(err, invoke.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &u, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	body, err := c.inv.Invoke(ctx, productService, "/api/products/"+productID, http.MethodGet, nil)
	if err != nil {
		if errors.Is(err, invoke.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}

	var p Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", productID, err)
	}
	return &p, nil
}
