package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"salon-booking/pkg/utils"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoSender struct {
	apiKey    string
	fromEmail string
	fromName  string
	endpoint  string
	client    *http.Client
}

func NewBrevoSender(config utils.EmailConfig, client *http.Client) *BrevoSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &BrevoSender{
		apiKey:    config.BrevoAPIKey,
		fromEmail: config.From,
		fromName:  config.FromName,
		endpoint:  brevoEndpoint,
		client:    client,
	}
}

func (b *BrevoSender) Name() string { return "brevo" }

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

func (b *BrevoSender) Send(ctx context.Context, msg Message) error {
	payload := brevoRequest{
		Sender:      brevoContact{Email: b.fromEmail, Name: b.fromName},
		To:          []brevoContact{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
		TextContent: msg.TextBody,
	}
	if payload.HTMLContent == "" && payload.TextContent == "" {
		payload.TextContent = " "
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	return nil
}
