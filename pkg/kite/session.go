package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// GenerateSession exchanges a request token for an access token using the
// SHA-256 checksum flow of Kite Connect v3, installs the token on the
// client, and returns it.
func (c *Client) GenerateSession(ctx context.Context, requestToken, apiSecret string) (string, error) {
	if c.APIKey == "" || apiSecret == "" {
		return "", fmt.Errorf("kite session: api key and secret are required")
	}

	sum := sha256.Sum256([]byte(c.APIKey + requestToken + apiSecret))

	form := url.Values{}
	form.Set("api_key", c.APIKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", hex.EncodeToString(sum[:]))

	data, err := c.do(ctx, http.MethodPost, "/session/token", form)
	if err != nil {
		return "", err
	}

	var out struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("kite session: decode: %w", err)
	}

	c.SetAccessToken(out.AccessToken)
	return out.AccessToken, nil
}

// storedToken is the on-disk shape of a persisted session.
type storedToken struct {
	AccessToken string    `json:"access_token"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SaveToken persists the access token so restarts within the session's
// validity window do not need a fresh login.
func SaveToken(path, accessToken string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	data, err := json.MarshalIndent(storedToken{AccessToken: accessToken, GeneratedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadToken reads a previously persisted access token. Returns an empty
// string when the file does not exist.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var tok storedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("parse token file %s: %w", path, err)
	}
	return tok.AccessToken, nil
}
