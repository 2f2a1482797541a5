package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// CaptchaVerifier checks a human-verification challenge response.
type CaptchaVerifier interface {
	Verify(ctx context.Context, response string) (bool, error)
}

// RecaptchaVerifier validates responses against Google's siteverify endpoint.
type RecaptchaVerifier struct {
	secret string
	client *http.Client
}

func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, response string) (bool, error) {
	if response == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", response)

	req, err := http.NewRequestWithContext(ctx, "POST", recaptchaVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("recaptcha API returned non-200 status: %s", resp.Status)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}
	return result.Success, nil
}

// NoCaptcha passes every challenge; used when no captcha is configured.
type NoCaptcha struct{}

func (NoCaptcha) Verify(ctx context.Context, response string) (bool, error) {
	return true, nil
}
