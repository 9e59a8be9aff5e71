package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/giftloop/megaphone/internal/logging"
	"github.com/giftloop/megaphone/internal/models"
)

// ---------------------------------------------------------------------------
// Telegram delivery
// Finished packages are handed to a human operator over Telegram: the video
// file plus a formatted message whose caption block can be copied straight
// into the target platform's upload form. Nothing is ever posted to a
// social platform directly from here.
// ---------------------------------------------------------------------------

const (
	telegramAPIBase = "https://api.telegram.org"

	// Telegram caps captions at 1024 chars and messages at 4096
	telegramCaptionLimit = 1024
	telegramMessageLimit = 4096
)

type TelegramService struct {
	botToken string
	chatID   string
	client   *resty.Client
	log      *charm.Logger
}

func NewTelegramService(botToken, chatID string) *TelegramService {
	return &TelegramService{
		botToken: botToken,
		chatID:   chatID,
		client: resty.New().
			SetTimeout(180 * time.Second). // video uploads take a while
			SetRetryCount(2).
			SetRetryWaitTime(3 * time.Second),
		log: logging.Component("telegram"),
	}
}

func (s *TelegramService) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", telegramAPIBase, s.botToken, method)
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage sends an HTML-formatted text message to the operator chat.
func (s *TelegramService) SendMessage(ctx context.Context, text string) error {
	return s.SendMessageTo(ctx, s.chatID, text)
}

// SendMessageTo sends an HTML-formatted text message to a specific chat.
func (s *TelegramService) SendMessageTo(ctx context.Context, chatID, text string) error {
	if len(text) > telegramMessageLimit {
		text = text[:telegramMessageLimit-1] + "…"
	}

	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		SetResult(&result).
		Post(s.apiURL("sendMessage"))
	if err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram sendMessage returned status %d: %s", resp.StatusCode(), result.Description)
	}

	return nil
}

// SendVideoTo uploads a video file to a specific chat.
func (s *TelegramService) SendVideoTo(ctx context.Context, chatID, videoPath, caption string) error {
	if len(caption) > telegramCaptionLimit {
		caption = caption[:telegramCaptionLimit-1] + "…"
	}

	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFile("video", videoPath).
		SetFormData(map[string]string{
			"chat_id":            chatID,
			"caption":            caption,
			"parse_mode":         "HTML",
			"supports_streaming": "true",
		}).
		SetResult(&result).
		Post(s.apiURL("sendVideo"))
	if err != nil {
		return fmt.Errorf("telegram sendVideo failed: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram sendVideo returned status %d: %s", resp.StatusCode(), result.Description)
	}

	s.log.Info("video sent", "path", videoPath)
	return nil
}

// SendPhoto uploads a photo with a caption.
func (s *TelegramService) SendPhoto(ctx context.Context, photoPath, caption string) error {
	return s.SendPhotoTo(ctx, s.chatID, photoPath, caption)
}

// SendPhotoTo uploads a photo to a specific chat.
func (s *TelegramService) SendPhotoTo(ctx context.Context, chatID, photoPath, caption string) error {
	if len(caption) > telegramCaptionLimit {
		caption = caption[:telegramCaptionLimit-1] + "…"
	}

	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFile("photo", photoPath).
		SetFormData(map[string]string{
			"chat_id":    chatID,
			"caption":    caption,
			"parse_mode": "HTML",
		}).
		SetResult(&result).
		Post(s.apiURL("sendPhoto"))
	if err != nil {
		return fmt.Errorf("telegram sendPhoto failed: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram sendPhoto returned status %d: %s", resp.StatusCode(), result.Description)
	}

	return nil
}

// SendDocument uploads an arbitrary file with a caption.
func (s *TelegramService) SendDocument(ctx context.Context, docPath, caption string) error {
	return s.SendDocumentTo(ctx, s.chatID, docPath, caption)
}

// SendDocumentTo uploads an arbitrary file to a specific chat.
func (s *TelegramService) SendDocumentTo(ctx context.Context, chatID, docPath, caption string) error {
	if len(caption) > telegramCaptionLimit {
		caption = caption[:telegramCaptionLimit-1] + "…"
	}

	var result telegramResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFile("document", docPath).
		SetFormData(map[string]string{
			"chat_id":    chatID,
			"caption":    caption,
			"parse_mode": "HTML",
		}).
		SetResult(&result).
		Post(s.apiURL("sendDocument"))
	if err != nil {
		return fmt.Errorf("telegram sendDocument failed: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram sendDocument returned status %d: %s", resp.StatusCode(), result.Description)
	}

	return nil
}

// SendTest sends a connectivity check message.
func (s *TelegramService) SendTest(ctx context.Context) error {
	msg := fmt.Sprintf("✅ <b>Megaphone test</b>\nBot connected at %s", time.Now().Format("2006-01-02 15:04:05"))
	return s.SendMessage(ctx, msg)
}

// SendAnalyticsReminder nudges the operator to log yesterday's numbers.
func (s *TelegramService) SendAnalyticsReminder(ctx context.Context, chatID string) error {
	msg := "📊 <b>Analytics check-in</b>\n" +
		"Time to log yesterday's numbers:\n" +
		"• Views and saves per platform\n" +
		"• Which hook performed best\n" +
		"• Any comments worth replying to\n\n" +
		"Reply here with anything the pipeline should do differently."
	return s.SendMessageTo(ctx, chatID, msg)
}

// DeliverPackage sends a finished package: the video first, then the full
// copy block the operator pastes into the upload form.
func (s *TelegramService) DeliverPackage(ctx context.Context, pkg *models.ContentPackage, videoPath string) error {
	return s.DeliverPackageTo(ctx, s.chatID, pkg, videoPath)
}

// DeliverPackageTo delivers one package to a specific operator chat.
func (s *TelegramService) DeliverPackageTo(ctx context.Context, chatID string, pkg *models.ContentPackage, videoPath string) error {
	shortCaption := fmt.Sprintf("🎬 <b>%s</b>\n%s · %s", html.EscapeString(pkg.Topic), pkg.Occasion, pkg.Platform)

	if err := s.SendVideoTo(ctx, chatID, videoPath, shortCaption); err != nil {
		return err
	}

	if err := s.SendMessageTo(ctx, chatID, BuildPackageMessage(pkg)); err != nil {
		return fmt.Errorf("video sent but copy block failed: %w", err)
	}

	return nil
}

// BuildPackageMessage formats the operator-facing copy block. The caption
// body sits inside <pre> so one tap copies it exactly.
func BuildPackageMessage(pkg *models.ContentPackage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎬 <b>%s</b>\n", html.EscapeString(pkg.Topic))
	fmt.Fprintf(&b, "Occasion: %s | Platform: %s\n\n", pkg.Occasion, pkg.Platform)

	b.WriteString("📋 COPY THIS CAPTION:\n")
	b.WriteString("<pre>")
	if pkg.Hook != nil && *pkg.Hook != "" {
		b.WriteString(html.EscapeString(*pkg.Hook))
		b.WriteString("\n\n")
	}
	if pkg.Caption != nil && *pkg.Caption != "" {
		b.WriteString(html.EscapeString(*pkg.Caption))
		b.WriteString("\n\n")
	}
	if len(pkg.Hashtags) > 0 {
		b.WriteString(html.EscapeString(strings.Join(pkg.Hashtags, " ")))
		b.WriteString("\n\n")
	}
	if pkg.CTA != nil && *pkg.CTA != "" {
		b.WriteString(html.EscapeString(*pkg.CTA))
	}
	b.WriteString("</pre>\n\n")

	fmt.Fprintf(&b, "📱 %s", PlatformInstructions(pkg.Platform))

	return b.String()
}

// PlatformInstructions tells the operator how to post on each platform.
var platformInstructions = map[models.Platform]string{
	models.PlatformTikTok:    "TikTok: upload as-is, paste the caption, put the link in your bio or first comment. Post between 7-9pm for best reach.",
	models.PlatformInstagram: "Instagram: post as a Reel, paste the caption, add the link to your story afterwards. Tag location if relevant.",
	models.PlatformYouTube:   "YouTube: upload as a Short, use the hook as the title, paste the rest as the description.",
}

func PlatformInstructions(p models.Platform) string {
	if instr, ok := platformInstructions[p]; ok {
		return instr
	}
	return "Upload the video and paste the caption above."
}
