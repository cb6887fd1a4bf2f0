package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// discordContentLimit is the maximum length of a webhook message's content.
const discordContentLimit = 2000

const discordGreen = 0x2ecc71

// DiscordSender delivers notifications via a Discord webhook. Opportunities
// are posted as an embed with one field per leg.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It uses a
// default HTTP client with a 10-second timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a message to the Discord webhook. The title is rendered in bold
// using Discord markdown syntax.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	content := fmt.Sprintf("**%s**\n%s", title, message)
	if r := []rune(content); len(r) > discordContentLimit {
		content = string(r[:discordContentLimit-1]) + "…"
	}
	return d.post(ctx, discordPayload{Content: content})
}

// SendOpportunity posts opp as an embed.
func (d *DiscordSender) SendOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	title, _ := FormatOpportunity(opp)
	embed := discordEmbed{
		Title:       title,
		Description: opp.BuyYesOn.Question,
		Color:       discordGreen,
		Fields: []discordField{
			{Name: "Buy YES on " + opp.BuyYesOn.VenueID, Value: fmt.Sprintf("$%.3f · %s", opp.YesPrice, FormatVolume(opp.YesVolume24h)), Inline: true},
			{Name: "Buy NO on " + opp.BuyNoOn.VenueID, Value: fmt.Sprintf("$%.3f · %s", opp.NoPrice, FormatVolume(opp.NoVolume24h)), Inline: true},
			{Name: "Total cost", Value: fmt.Sprintf("$%.3f", opp.TotalCost), Inline: true},
			{Name: "Profit", Value: fmt.Sprintf("%.4f%%", opp.ProfitPct), Inline: true},
		},
	}
	if !opp.DetectedAt.IsZero() {
		embed.Timestamp = opp.DetectedAt.UTC().Format(time.RFC3339)
	}
	return d.post(ctx, discordPayload{Embeds: []discordEmbed{embed}})
}

func (d *DiscordSender) post(ctx context.Context, payload discordPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
