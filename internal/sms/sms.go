// Package sms sends text messages through a Twilio-compatible REST API.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidNumber is returned for recipients not in E.164 form.
	ErrInvalidNumber = errors.New("recipient must be an E.164 number")
	// ErrNotConfigured is returned when provider credentials are missing.
	ErrNotConfigured = errors.New("sms provider not configured")
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// ValidateNumber checks E.164 format.
func ValidateNumber(to string) error {
	if !e164.MatchString(to) {
		return ErrInvalidNumber
	}
	return nil
}

// Receipt is what the provider returns for an accepted message.
type Receipt struct {
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
}

// Sender sends one message.
type Sender interface {
	Send(ctx context.Context, to, body string) (Receipt, error)
}

// ProviderError carries the provider's own status and message.
type ProviderError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("sms provider returned %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// ProviderClient posts to {BaseURL}/Accounts/{AccountSID}/Messages.json.
type ProviderClient struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	HTTP       *http.Client
}

func NewProviderClient(baseURL, accountSID, authToken, from string) *ProviderClient {
	return &ProviderClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

type providerMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *ProviderClient) Send(ctx context.Context, to, body string) (Receipt, error) {
	if c.AccountSID == "" || c.AuthToken == "" || c.From == "" {
		return Receipt{}, ErrNotConfigured
	}
	if err := ValidateNumber(to); err != nil {
		return Receipt{}, err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.BaseURL, url.PathEscape(c.AccountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Receipt{}, fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Receipt{}, fmt.Errorf("read sms response: %w", err)
	}
	var msg providerMessage
	decodeErr := json.Unmarshal(raw, &msg)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{StatusCode: resp.StatusCode, Code: msg.Code, Message: msg.Message}
		if decodeErr != nil || perr.Message == "" {
			perr.Message = resp.Status
		}
		return Receipt{}, perr
	}
	if decodeErr != nil {
		return Receipt{}, fmt.Errorf("decode sms response: %w", decodeErr)
	}
	return Receipt{ProviderID: msg.SID, Status: msg.Status}, nil
}
