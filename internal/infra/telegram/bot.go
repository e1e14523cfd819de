package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"whitelist-vpn-miniapp/internal/config"
)

// BotAPI is the subset of *tgbotapi.BotAPI the invoice service uses.
type BotAPI interface {
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

var _ BotAPI = (*tgbotapi.BotAPI)(nil)

// NewBotAPI connects to the Bot API. A custom api_url points at a local Bot API server.
func NewBotAPI(cfg *config.BotConfig) (*tgbotapi.BotAPI, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	if cfg.APIURL == "" {
		return tgbotapi.NewBotAPI(cfg.Token)
	}
	return tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, strings.TrimRight(cfg.APIURL, "/")+"/bot%s/%s")
}
