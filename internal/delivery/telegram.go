package delivery

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"lol-reporter/internal/config"
	"lol-reporter/internal/constants"
	"lol-reporter/internal/domain"
)

// Telegram delivers reports to a single chat and hosts the /daily and
// /monthly operator commands.
type Telegram struct {
	bot     *tele.Bot
	chat    tele.Recipient
	trigger Trigger
	logger  zerolog.Logger
}

func NewTelegram(cfg *config.Config, logger zerolog.Logger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.TelegramToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chat:   tele.ChatID(cfg.TelegramChatID),
		logger: logger,
	}, nil
}

// SetTrigger wires the manual cycle surface; it must be called before Start.
func (t *Telegram) SetTrigger(trigger Trigger) {
	t.trigger = trigger
}

// Start registers the operator commands and runs the long poller until Stop.
func (t *Telegram) Start() {
	t.bot.Handle("/daily", func(c tele.Context) error {
		return t.handleManual(c, domain.CycleDaily)
	})
	t.bot.Handle("/monthly", func(c tele.Context) error {
		return t.handleManual(c, domain.CycleMonthly)
	})

	t.logger.Info().Msg("telegram poller starting")
	go t.bot.Start()
}

func (t *Telegram) Stop() {
	t.bot.Stop()
	t.logger.Info().Msg("telegram poller stopped")
}

func (t *Telegram) handleManual(c tele.Context, kind domain.CycleKind) error {
	if t.trigger == nil {
		return c.Send("cycle trigger not wired")
	}
	t.logger.Info().Str("kind", string(kind)).Int64("from", c.Sender().ID).Msg("manual cycle requested")

	// The command handler answers immediately; the cycle runs on its own,
	// concurrently-safe with the autonomous loop.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CycleTimeout)
		defer cancel()

		var err error
		if kind == domain.CycleDaily {
			err = t.trigger.RunDaily(ctx)
		} else {
			err = t.trigger.RunMonthly(ctx)
		}
		if err != nil {
			t.logger.Error().Err(err).Str("kind", string(kind)).Msg("manual cycle failed")
		}
	}()

	return c.Send(fmt.Sprintf("Running %s cycle now.", kind))
}

func (t *Telegram) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, text)
	return err
}

func (t *Telegram) SendFragment(ctx context.Context, fragment domain.ReportFragment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(t.chat, renderFragment(fragment), tele.ModeHTML)
	return err
}

func (t *Telegram) SendFile(ctx context.Context, data []byte, filename, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(data)),
		Caption: caption,
	}
	_, err := t.bot.Send(t.chat, photo)
	return err
}

func renderFragment(f domain.ReportFragment) string {
	var b strings.Builder
	b.WriteString(toneMarker(f.Tone))
	b.WriteString(" <b>")
	b.WriteString(escapeHTML(f.Title))
	b.WriteString("</b>")
	for _, line := range f.Lines {
		b.WriteString("\n")
		b.WriteString(escapeHTML(line))
	}
	return b.String()
}

func toneMarker(tone domain.FragmentTone) string {
	switch tone {
	case domain.ToneWin:
		return "✅"
	case domain.ToneLoss:
		return "❌"
	default:
		return "▫️"
	}
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
