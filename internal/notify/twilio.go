package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const twilioAPI = "https://api.twilio.com"

var ErrInvalidSMS = errors.New("invalid sms parameters")

// Twilio sends SMS alerts to 10-digit North American numbers.
type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
}

// NewTwilio returns nil when credentials are missing so callers can skip it.
func NewTwilio(accountSID, authToken, from string) *Twilio {
	if accountSID == "" || authToken == "" || from == "" {
		return nil
	}
	return &Twilio{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    twilioAPI,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Twilio) Send(ctx context.Context, recipient, message string) error {
	if t == nil {
		return errors.New("twilio disabled")
	}
	phone := strings.TrimSpace(recipient)
	msg := strings.TrimSpace(message)
	if len(phone) != 10 || strings.Trim(phone, "0123456789") != "" {
		return fmt.Errorf("%w: phone %q", ErrInvalidSMS, recipient)
	}
	if n := utf8.RuneCountInString(msg); n == 0 || n > 1600 {
		return fmt.Errorf("%w: message length %d", ErrInvalidSMS, n)
	}

	form := url.Values{
		"From": {t.From},
		"To":   {"+1" + phone},
		"Body": {msg},
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(t.BaseURL, "/"), url.PathEscape(t.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}
	return nil
}
