package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/example/storefront-promo/internal/models"
)

// PublishNotifier is told about every promotion an operator publishes.
type PublishNotifier interface {
	NotifyPromoPublished(n PromoPublished) error
}

// PromoPublished describes one admin update of the promotion document.
type PromoPublished struct {
	Admin    string
	Document models.PromoDocument
	At       time.Time
}

// TelegramService sends admin notifications through a Telegram bot.
type TelegramService struct {
	bot         *tele.Bot
	adminChatID int64
	log         logrus.FieldLogger
}

// NewTelegramService creates a TelegramService. apiURL may be empty to use
// the public Bot API. The bot never polls for updates.
func NewTelegramService(botToken, apiURL string, adminChatID int64, log logrus.FieldLogger) (*TelegramService, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:   botToken,
		URL:     apiURL,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TelegramService{
		bot:         bot,
		adminChatID: adminChatID,
		log:         log.WithField("component", "telegram"),
	}, nil
}

// SendToAdmin sends an HTML message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == 0 {
		s.log.Debug("admin chat id not configured, skipping message")
		return nil
	}
	if _, err := s.bot.Send(tele.ChatID(s.adminChatID), text, tele.ModeHTML); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// NotifyPromoPublished reports a promotion update to the admin chat.
func (s *TelegramService) NotifyPromoPublished(n PromoPublished) error {
	return s.SendToAdmin(FormatPromoPublished(n))
}

// FormatPromoPublished renders the admin message for n. Fields the
// operator left out are reported as defaults.
func FormatPromoPublished(n PromoPublished) string {
	doc := n.Document
	value := func(v *string) string {
		if v == nil || strings.TrimSpace(*v) == "" {
			return "<i>افتراضي</i>"
		}
		return html.EscapeString(*v)
	}

	status := "✅ مفعل"
	if doc.Enabled != nil && !*doc.Enabled {
		status = "⛔ معطل"
	}

	var b strings.Builder
	b.WriteString("<b>📣 تم تحديث العرض الخاص</b>\n")
	fmt.Fprintf(&b, "<b>العنوان:</b> %s\n", value(doc.Title))
	fmt.Fprintf(&b, "<b>الحالة:</b> %s\n", status)
	if doc.LinkType != nil {
		fmt.Fprintf(&b, "<b>الرابط:</b> %s\n", html.EscapeString(promoDestination(doc)))
	}
	if doc.ExpireDate != nil {
		fmt.Fprintf(&b, "<b>ينتهي:</b> %s\n", doc.ExpireDate.UTC().Format("2006-01-02 15:04 UTC"))
	}
	if n.Admin != "" {
		fmt.Fprintf(&b, "<b>بواسطة:</b> %s\n", html.EscapeString(n.Admin))
	}
	b.WriteString("━━━━━━━━━━━━━━━━━━")
	if !n.At.IsZero() {
		fmt.Fprintf(&b, "\n<i>%s</i>", n.At.UTC().Format(time.RFC3339))
	}
	return b.String()
}

func promoDestination(doc models.PromoDocument) string {
	deref := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	switch *doc.LinkType {
	case models.LinkInternal:
		return "internal " + deref(doc.InternalLink)
	case models.LinkExternal:
		return "external " + deref(doc.ExternalLink)
	case models.LinkScroll:
		target := models.ScrollOffers
		if doc.ScrollTarget != nil {
			target = *doc.ScrollTarget
		}
		return "scroll #" + string(target)
	default:
		return string(*doc.LinkType)
	}
}
