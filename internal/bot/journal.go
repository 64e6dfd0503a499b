// internal/bot/journal.go
package bot

import (
	"context"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/gmgn-sniper/internal/events"
)

// subscribeJournal пишет события шины в лог.
func subscribeJournal(bus *events.Bus, log *zap.Logger) []events.Subscription {
	return []events.Subscription{
		bus.SubscribeFunc(events.CandidateAdmitted, func(_ context.Context, e events.Event) error {
			if ev, ok := e.(events.CandidateAdmittedEvent); ok {
				log.Info("🎯 New candidate",
					zap.String("token", ev.Address),
					zap.Float64("market_cap", ev.MarketCap),
					zap.Int64("holders", ev.Holders))
			}
			return nil
		}),
		bus.SubscribeFunc(events.FeedStateChanged, func(_ context.Context, e events.Event) error {
			if ev, ok := e.(events.FeedStateChangedEvent); ok {
				log.Info("📡 Feed state", zap.String("from", ev.From), zap.String("to", ev.To))
			}
			return nil
		}),
		bus.SubscribeFunc(events.SwapSubmitted, func(_ context.Context, e events.Event) error {
			if ev, ok := e.(events.SwapSubmittedEvent); ok {
				log.Info("✅ Swap submitted",
					zap.String("trade_id", ev.TradeID),
					zap.String("output_token", ev.OutputToken),
					zap.Float64("amount_sol", ev.AmountSol),
					zap.Float64("profit_sol", ev.ProfitSol),
					zap.Bool("accepted", ev.Accepted))
			}
			return nil
		}),
		bus.SubscribeFunc(events.SwapFailed, func(_ context.Context, e events.Event) error {
			if ev, ok := e.(events.SwapFailedEvent); ok {
				log.Warn("❌ Swap failed",
					zap.String("stage", ev.Stage),
					zap.String("output_token", ev.OutputToken),
					zap.Error(ev.Error))
			}
			return nil
		}),
	}
}
