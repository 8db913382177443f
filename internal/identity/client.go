package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client implements Verifier against the humanID core REST API.
type Client struct {
	baseURL   string
	appID     string
	appSecret string
	http      *http.Client
}

func NewClient(baseURL, appID, appSecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		appID:     appID,
		appSecret: appSecret,
		http:      &http.Client{Timeout: timeout},
	}
}

type exchangeRequest struct {
	AppID         string `json:"appId"`
	AppSecret     string `json:"appSecret"`
	ExchangeToken string `json:"exchangeToken"`
}

type exchangeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UserHash string `json:"userHash"`
	} `json:"data"`
}

// Verify posts the exchange token to the core API and returns the user
// hash. Anything other than a well-formed success response is
// ErrVerificationFailed.
func (c *Client) Verify(ctx context.Context, exchangeToken string) (string, error) {
	body, err := json.Marshal(exchangeRequest{
		AppID:         c.appID,
		AppSecret:     c.appSecret,
		ExchangeToken: exchangeToken,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/server/users/exchange",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("humanid exchange call failed")
		return "", fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Msg("humanid exchange rejected")
		return "", fmt.Errorf("%w: status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var parsed exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if !parsed.Success || parsed.Data.UserHash == "" {
		return "", fmt.Errorf("%w: core api reported failure", ErrVerificationFailed)
	}

	return parsed.Data.UserHash, nil
}
