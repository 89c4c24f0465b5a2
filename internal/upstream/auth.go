package upstream

import (
	"context"
	"net/http"
	"time"

	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
)

// AuthClient resolves bearer tokens into customer identities via the auth
// service.
type AuthClient struct {
	client
}

// NewAuthClient creates an auth service client.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{client: newClient(baseURL, timeout)}
}

type profileResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Identity fetches the profile behind the given token. An invalid or
// expired token is an error; callers decide whether to proceed as guest.
func (c *AuthClient) Identity(ctx context.Context, token string) (*checkout.Identity, error) {
	var resp profileResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", token, nil, &resp); err != nil {
		return nil, err
	}
	return &checkout.Identity{
		UserID:   resp.ID,
		FullName: resp.FullName,
		Email:    resp.Email,
	}, nil
}
