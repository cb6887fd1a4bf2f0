package notify

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// StartupInfo describes the running configuration for the startup message.
type StartupInfo struct {
	Venues       []string
	Skipped      []string
	Categories   []string
	PollInterval time.Duration
	ThresholdPct float64
	Once         bool
}

// FormatOpportunity renders an opportunity as a Markdown title and body.
func FormatOpportunity(opp domain.ArbitrageOpportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage %.2f%% %s", opp.ProfitPct, Stars(opp.Rating))

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", escape(opp.BuyYesOn.Question))
	if opp.BuyNoOn.Question != opp.BuyYesOn.Question {
		fmt.Fprintf(&b, "_%s_\n", escape(opp.BuyNoOn.Question))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "1. Buy *YES* on *%s* at $%.3f (24h vol %s)\n",
		escape(opp.BuyYesOn.VenueID), opp.YesPrice, FormatVolume(opp.YesVolume24h))
	fmt.Fprintf(&b, "2. Buy *NO* on *%s* at $%.3f (24h vol %s)\n",
		escape(opp.BuyNoOn.VenueID), opp.NoPrice, FormatVolume(opp.NoVolume24h))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total cost: $%.3f\n", opp.TotalCost)
	fmt.Fprintf(&b, "Profit: *%.4f%%*\n", opp.ProfitPct)
	fmt.Fprintf(&b, "Rating: %s\n", Stars(opp.Rating))
	if opp.Pair.Category != "" {
		fmt.Fprintf(&b, "Category: %s (similarity %.2f)\n", escape(opp.Pair.Category), opp.Pair.Similarity)
	}
	return title, b.String()
}

// FormatStartup renders the startup announcement.
func FormatStartup(info StartupInfo) (title, message string) {
	title = "predarb started"

	var b strings.Builder
	fmt.Fprintf(&b, "Venues: %s\n", escape(strings.Join(info.Venues, ", ")))
	if len(info.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped: %s\n", escape(strings.Join(info.Skipped, ", ")))
	}
	fmt.Fprintf(&b, "Categories: %s\n", escape(strings.Join(info.Categories, ", ")))
	if info.Once {
		b.WriteString("Mode: single cycle\n")
	} else {
		fmt.Fprintf(&b, "Polling every %s\n", info.PollInterval)
	}
	fmt.Fprintf(&b, "Profit threshold: %.2f%%\n", info.ThresholdPct)
	return title, b.String()
}

// FormatVolume renders a dollar volume as $X.XXM, $X.XXK or $X.XX.
func FormatVolume(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.2fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// Stars renders a rating as that many star glyphs, at least one.
func Stars(rating int) string {
	return strings.Repeat("⭐", max(rating, 1))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
