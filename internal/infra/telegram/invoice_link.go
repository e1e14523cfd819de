package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"
)

// IssuedInvoices remembers created links for pre-checkout verification.
type IssuedInvoices interface {
	Save(ctx context.Context, inv *model.IssuedInvoice) error
	Find(ctx context.Context, payload string) (*model.IssuedInvoice, error)
	MarkPaid(ctx context.Context, chargeID string) (bool, error)
}

// InvoiceLinker creates Telegram Stars invoice links.
type InvoiceLinker struct {
	bot      BotAPI
	invoices IssuedInvoices
	clock    clock.Clock
	log      *zerolog.Logger
}

func NewInvoiceLinker(bot BotAPI, invoices IssuedInvoices, clk clock.Clock, logger *zerolog.Logger) *InvoiceLinker {
	if clk == nil {
		clk = clock.System{}
	}
	return &InvoiceLinker{bot: bot, invoices: invoices, clock: clk, log: logger}
}

// CreateLink issues a Stars invoice for plan on behalf of userID.
func (l *InvoiceLinker) CreateLink(ctx context.Context, plan model.Plan, userID int64) (string, error) {
	defer logging.TraceDuration(l.log, "InvoiceLinker.CreateLink")()

	if plan.IsTrial || plan.PriceStars <= 0 {
		metrics.IncInvoice(plan.ID, "rejected")
		return "", fmt.Errorf("plan %q is not billable: %w", plan.ID, domain.ErrInvalidArgument)
	}

	now := l.clock.Now()
	payload := model.InvoicePayload(plan.ID, userID, ulid.Make().String())

	params := tgbotapi.Params{}
	params["title"] = plan.Name
	params["description"] = fmt.Sprintf("WhiteList VPN: %s", plan.Name)
	params["payload"] = payload
	// Stars invoices take an empty provider token.
	params["provider_token"] = ""
	params["currency"] = model.StarsCurrency
	if err := params.AddInterface("prices", []tgbotapi.LabeledPrice{{Label: plan.Name, Amount: int(plan.PriceStars)}}); err != nil {
		return "", err
	}

	resp, err := l.bot.MakeRequest("createInvoiceLink", params)
	if err != nil {
		metrics.IncInvoice(plan.ID, "error")
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("createInvoiceLink: %s: %w", apiErr.Message, domain.ErrInvoiceCreationFailed)
		}
		return "", fmt.Errorf("createInvoiceLink: %v: %w", err, domain.ErrInvoiceCreationFailed)
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil || link == "" {
		metrics.IncInvoice(plan.ID, "error")
		return "", fmt.Errorf("createInvoiceLink: unexpected result: %w", domain.ErrInvoiceCreationFailed)
	}

	inv := &model.IssuedInvoice{
		Payload:     payload,
		UserID:      userID,
		PlanID:      plan.ID,
		AmountStars: plan.PriceStars,
		CreatedAt:   now,
	}
	if err := l.invoices.Save(ctx, inv); err != nil {
		metrics.IncInvoice(plan.ID, "error")
		return "", fmt.Errorf("remember invoice: %w", err)
	}

	metrics.IncInvoice(plan.ID, "created")
	l.log.Info().Str("plan_id", plan.ID).Int64("tg_id", userID).Msg("invoice link created")
	return link, nil
}
