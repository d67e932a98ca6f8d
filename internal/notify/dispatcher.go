package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// BuyerSender posts a message into a marketplace chat
type BuyerSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// AdminSender posts a message into a Telegram chat
type AdminSender interface {
	SendNotification(ctx context.Context, chatID int64, text string) error
}

// SettingsSource provides the current notification settings
type SettingsSource interface {
	Get() models.Settings
}

// Dispatcher routes notifications to buyers and administrators
type Dispatcher struct {
	buyer    BuyerSender
	admin    AdminSender
	settings SettingsSource
	log      *slog.Logger
}

// New creates a new Dispatcher. admin may be set later with SetAdmin.
func New(buyer BuyerSender, admin AdminSender, settings SettingsSource, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		buyer:    buyer,
		admin:    admin,
		settings: settings,
		log:      log,
	}
}

// SetAdmin replaces the administrator channel
func (d *Dispatcher) SetAdmin(admin AdminSender) {
	d.admin = admin
}

// NotifyBuyer sends text into the buyer chat
func (d *Dispatcher) NotifyBuyer(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("notify buyer: empty chat id")
	}
	if err := d.buyer.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("notify buyer %s: %w", chatID, err)
	}

	d.log.Debug("buyer notified", "chat_id", chatID)
	return nil
}

// NotifyAdmin sends text to the notification chat. It is a no-op when admin
// notifications are off or no chat is configured.
func (d *Dispatcher) NotifyAdmin(ctx context.Context, text string) error {
	s := d.settings.Get()
	if !s.AdminNotifications || s.NotificationChatID == 0 {
		d.log.Debug("admin notification skipped",
			"enabled", s.AdminNotifications,
			"chat_id", s.NotificationChatID,
		)
		return nil
	}
	if d.admin == nil {
		return fmt.Errorf("notify admin: no telegram sender")
	}

	if err := d.admin.SendNotification(ctx, s.NotificationChatID, text); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}
