package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RemoteValidator asks the identity provider who a token belongs to, for
// deployments that do not share signing material with the relay.
type RemoteValidator struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewRemoteValidator(baseURL, anonKey string, client *http.Client) *RemoteValidator {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteValidator{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  client,
	}
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (v *RemoteValidator) Validate(ctx context.Context, token string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.anonKey != "" {
		req.Header.Set("apikey", v.anonKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("identity provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var user remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrMissingSubject
	}

	return &Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}
