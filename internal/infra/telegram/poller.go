package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/infra/i18n"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"
	"whitelist-vpn-miniapp/internal/infra/worker"
)

// Referrals records bot users and who invited them.
type Referrals interface {
	Register(ctx context.Context, userID int64) (bool, error)
	CreditReferral(ctx context.Context, referrerID, userID int64) (bool, error)
}

const (
	rejectUnknownInvoice = "This invoice is no longer valid. Please try again from the app."
	rejectAmountMismatch = "The invoice amount does not match the selected plan."
)

// Poller receives bot updates and fans them out to the worker pool. It answers
// pre-checkout queries, records successful payments and credits referrals.
type Poller struct {
	bot       BotAPI
	invoices  IssuedInvoices
	referrals Referrals
	pool      *worker.Pool
	tr        i18n.Translator
	log       *zerolog.Logger

	// Timeout is the long-poll timeout in seconds.
	Timeout int
	// Dev logs invoice payloads and charge ids unredacted.
	Dev bool
}

func NewPoller(bot BotAPI, invoices IssuedInvoices, referrals Referrals, pool *worker.Pool, tr i18n.Translator, logger *zerolog.Logger) *Poller {
	return &Poller{
		bot:       bot,
		invoices:  invoices,
		referrals: referrals,
		pool:      pool,
		tr:        tr,
		log:       logger,
		Timeout:   60,
	}
}

// Run polls until ctx is canceled. The pool must already be started.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.Timeout
	updates := p.bot.GetUpdatesChan(u)
	defer p.bot.StopReceivingUpdates()

	p.log.Info().Msg("bot polling started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			err := p.pool.Submit(ctx, func(ctx context.Context) error {
				return p.HandleUpdate(ctx, update)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				p.log.Error().Err(err).Int("update_id", update.UpdateID).Msg("dispatch update")
			}
		}
	}
}

// HandleUpdate processes a single update.
func (p *Poller) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.PreCheckoutQuery != nil:
		metrics.IncTelegramUpdate("pre_checkout")
		return p.answerPreCheckout(ctx, update.PreCheckoutQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		metrics.IncTelegramUpdate("payment")
		return p.recordPayment(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		metrics.IncTelegramUpdate("command")
		return p.handleCommand(ctx, update.Message)
	default:
		metrics.IncTelegramUpdate("other")
		return nil
	}
}

func (p *Poller) answerPreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery) error {
	defer logging.TraceDuration(p.log, "Poller.answerPreCheckout")()

	reason := p.checkPreCheckout(ctx, q)
	cfg := tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: q.ID, OK: reason == "", ErrorMessage: reason}
	if _, err := p.bot.Request(cfg); err != nil {
		metrics.IncPreCheckout("error")
		return fmt.Errorf("answer pre-checkout %s: %w", q.ID, err)
	}
	if reason != "" {
		metrics.IncPreCheckout("rejected")
		p.log.Warn().Str("payload", logging.Redact(q.InvoicePayload, p.Dev)).Str("reason", reason).Msg("pre-checkout rejected")
		return nil
	}
	metrics.IncPreCheckout("ok")
	return nil
}

// checkPreCheckout returns an empty string when the charge may proceed.
func (p *Poller) checkPreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery) string {
	planID, userID, _, ok := model.ParseInvoicePayload(q.InvoicePayload)
	if !ok {
		return rejectUnknownInvoice
	}
	plan, err := model.FindPlan(planID)
	if err != nil || plan.IsTrial {
		return rejectUnknownInvoice
	}
	if q.Currency != model.StarsCurrency || int64(q.TotalAmount) != plan.PriceStars {
		return rejectAmountMismatch
	}

	issued, err := p.invoices.Find(ctx, q.InvoicePayload)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("look up issued invoice")
		}
		return rejectUnknownInvoice
	}
	if issued.UserID != userID || issued.AmountStars != plan.PriceStars {
		return rejectUnknownInvoice
	}
	if q.From != nil && q.From.ID != userID {
		return rejectUnknownInvoice
	}
	return ""
}

func (p *Poller) recordPayment(ctx context.Context, msg *tgbotapi.Message) error {
	sp := msg.SuccessfulPayment
	chargeID := logging.Redact(sp.TelegramPaymentChargeID, p.Dev)
	first, err := p.invoices.MarkPaid(ctx, sp.TelegramPaymentChargeID)
	if err != nil {
		return fmt.Errorf("mark payment %s: %w", chargeID, err)
	}
	if !first {
		p.log.Debug().Str("charge_id", chargeID).Msg("duplicate payment update")
		return nil
	}

	planID, userID, _, _ := model.ParseInvoicePayload(sp.InvoicePayload)
	metrics.IncPayment(planID)
	metrics.AddPaymentRevenue(sp.Currency, int64(sp.TotalAmount))
	p.log.Info().
		Str("plan_id", planID).
		Int64("tg_id", userID).
		Str("charge_id", chargeID).
		Int("amount", sp.TotalAmount).
		Msg("payment received")
	return nil
}

func (p *Poller) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Command() != "start" || msg.From == nil || msg.Chat == nil {
		return nil
	}
	userID := msg.From.ID

	isNew, err := p.referrals.Register(ctx, userID)
	if err != nil {
		p.log.Error().Err(err).Int64("tg_id", userID).Msg("register user")
	} else if isNew {
		metrics.IncUsersRegistered()
	}

	credited := false
	if referrerID, ok := model.ParseReferralCode(msg.CommandArguments()); ok {
		credited, err = p.referrals.CreditReferral(ctx, referrerID, userID)
		if err != nil {
			p.log.Error().Err(err).Int64("referrer", referrerID).Msg("credit referral")
		} else if credited {
			metrics.IncReferralsCredited()
		}
	}

	lang := model.ParseLanguage(msg.From.LanguageCode)
	text := p.tr.T(lang, "bot_welcome", msg.From.FirstName)
	if credited {
		text += "\n\n" + p.tr.T(lang, "bot_referral_credited")
	}
	if _, err := p.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}
