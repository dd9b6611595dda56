// Package provider talks to the external media-relay service used for
// delegated sessions: one idempotent room-create call plus locally minted
// short-lived access credentials the relay validates on its own.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/counselpoint/gateway/internal/domain"
)

type Client struct {
	baseURL  string
	apiKey   string
	secret   []byte
	tokenTTL time.Duration
	http     *http.Client
	log      zerolog.Logger
}

func NewClient(baseURL, apiKey, apiSecret string, tokenTTL, timeout time.Duration, log zerolog.Logger) *Client {
	if tokenTTL <= 0 {
		tokenTTL = 2 * time.Hour
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		secret:   []byte(apiSecret),
		tokenTTL: tokenTTL,
		http:     &http.Client{Timeout: timeout},
		log:      log.With().Str("module", "provider").Logger(),
	}
}

// EnsureRoom creates the relay-side room. The provider answering
// "already exists" counts as success so repeated joins are idempotent;
// any other failure propagates, tagged with retryability.
func (c *Client) EnsureRoom(ctx context.Context, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return &domain.ProviderError{Op: "create room", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return &domain.ProviderError{Op: "create room", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ProviderError{Op: "create room", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// Room exists from an earlier join.
		return nil
	case resp.StatusCode >= 500:
		return &domain.ProviderError{
			Op:        "create room",
			Retryable: true,
			Err:       fmt.Errorf("status %d", resp.StatusCode),
		}
	default:
		return &domain.ProviderError{
			Op:  "create room",
			Err: fmt.Errorf("status %d", resp.StatusCode),
		}
	}
}

// AccessToken mints the role-scoped credential the relay validates when
// the client's media stream connects to it directly. The gateway never
// stores or inspects it afterwards.
func (c *Client) AccessToken(name string, user domain.UserID, moderator bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       c.apiKey,
		"sub":       string(user),
		"room":      name,
		"moderator": moderator,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       now.Add(c.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", &domain.ProviderError{Op: "mint token", Err: err}
	}
	return signed, nil
}
