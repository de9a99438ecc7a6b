package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// FinanceConfig carries the credentials and endpoint for the remote finance
// service. It is built once in main and handed to the client explicitly;
// nothing in this package reads ambient configuration.
type FinanceConfig struct {
	BaseURL  string
	Username string
	Password string
}

// Coupon mirrors the finance service's payload. The fields are provider-owned
// and passed through untouched; json.Unmarshal matches them case-insensitively.
type Coupon struct {
	CouponID    string  `json:"couponId"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ExpiryDate  string  `json:"expiryDate"`
	IsRedeemed  bool    `json:"isRedeemed"`
}

type FinanceClient struct {
	config     FinanceConfig
	httpClient *http.Client
}

// NewFinanceClient builds a client for the finance coupon API. No request
// deadline is set beyond the transport default; callers bound the call with
// their context if they need one.
func NewFinanceClient(config FinanceConfig) *FinanceClient {
	return &FinanceClient{
		config:     config,
		httpClient: &http.Client{},
	}
}

// GetUserCoupons fetches the coupons the finance service holds for the given
// email and employee id. A non-2xx status or an unparseable body fails the
// call; there is no retry.
func (c *FinanceClient) GetUserCoupons(ctx context.Context, email, employeeID string) ([]Coupon, error) {
	endpoint := fmt.Sprintf("%s/api/v2/finance/coupons?email=%s&employeeId=%s",
		c.config.BaseURL, url.QueryEscape(email), url.QueryEscape(employeeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("finance service returned status %d", resp.StatusCode)
	}

	var coupons []Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupons); err != nil {
		return nil, fmt.Errorf("failed to decode coupon response: %v", err)
	}

	return coupons, nil
}
