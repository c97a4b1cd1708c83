package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	mainNetAPIURL = "https://pay.crypt.bot/api"
	testNetAPIURL = "https://testnet-pay.crypt.bot/api"
)

type Client struct {
	Token      string
	APIURL     string
	HTTPClient *http.Client
}

func NewClient(token string, testnet bool) *Client {
	apiURL := mainNetAPIURL
	if testnet {
		apiURL = testNetAPIURL
	}

	return &Client{
		Token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type apiResponse struct {
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) CreateInvoice(req CreateInvoiceRequest) (*Invoice, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", fmt.Sprintf("%s/createInvoice", c.APIURL), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Idempotence Key
	httpReq.Header.Set("Idempotence-Key", uuid.New().String())
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Crypto-Pay-API-Token", c.Token)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var wrapped apiResponse
	if err := json.Unmarshal(respBody, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !wrapped.Ok {
		return nil, fmt.Errorf("api returned ok=false: %s", string(respBody))
	}

	var invoice Invoice
	if err := json.Unmarshal(wrapped.Result, &invoice); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	return &invoice, nil
}
