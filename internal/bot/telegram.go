package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"crypto-analyzer/internal/analysis"
	"crypto-analyzer/internal/service"

	tele "gopkg.in/telebot.v3"
)

// StartTelegramBot wires the market commands into a long-polling Telegram
// bot. An empty token disables the bot entirely.
func StartTelegramBot(token string, markets *service.MarketService) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /price bitcoin")
		}
		record, err := markets.GetAsset(context.Background(), args[0])
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching %s: %v", args[0], err))
		}
		return c.Send(fmt.Sprintf(
			"%s (%s)\nPrice: $%.2f\n24h: %+.2f%%\n7d: %+.2f%%\n30d: %+.2f%%\nMarket cap rank: #%d",
			record.Name, record.Symbol, record.CurrentPrice,
			record.PriceChangePct24h, record.PriceChangePct7d, record.PriceChangePct30d,
			record.MarketCapRank,
		))
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /sentiment bitcoin")
		}
		record, err := markets.GetAsset(context.Background(), args[0])
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching %s: %v", args[0], err))
		}
		result := analysis.ComputeSentiment(*record)
		msg := fmt.Sprintf(
			"%s sentiment: %s\nFear & Greed: %.0f (%s)\n%s",
			record.Name, result.Overall,
			result.FearGreed.DisplayValue, result.FearGreed.Status,
			result.MarketTrend,
		)
		if len(result.RiskFactors) > 0 {
			msg += "\nRisks:"
			for _, risk := range result.RiskFactors {
				msg += "\n- " + risk
			}
		}
		return c.Send(msg)
	})

	b.Handle("/forecast", func(c tele.Context) error {
		args := c.Args()
		if len(args) != 3 {
			return c.Send("Usage: /forecast bitcoin 1000 12")
		}
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return c.Send("Amount must be a number, e.g. 1000")
		}
		months, err := strconv.Atoi(args[2])
		if err != nil {
			return c.Send("Months must be a whole number, e.g. 12")
		}
		record, err := markets.GetAsset(context.Background(), args[0])
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching %s: %v", args[0], err))
		}
		projection, err := analysis.ComputeProjection(record, amount, months)
		if err != nil {
			return c.Send(fmt.Sprintf("Cannot compute projection: %v", err))
		}
		return c.Send(fmt.Sprintf(
			"%s projection for $%.2f over %d months\nPotential value: $%.2f\nRisk: %s (%.0f%% confidence)\n%s",
			record.Name, amount, months,
			projection.PotentialReturn, projection.RiskLevel, projection.ConfidencePct,
			projection.Description,
		))
	})

	log.Println("Telegram bot started")
	go b.Start()
}
