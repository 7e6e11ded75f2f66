package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService sends WhatsApp messages through the Twilio REST API.
// Delivery is best effort: callers enqueue sends and never block on them,
// and a gateway failure must not fail the mutation that triggered it.
type NotificationService struct {
	db     *gorm.DB
	cfg    config.WhatsAppConfig
	client *http.Client
}

func NewNotificationService(db *gorm.DB, cfg config.WhatsAppConfig) *NotificationService {
	return &NotificationService{
		db:     db,
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Process handles one queued delivery task. It is the processor for both
// the async worker and the sync queue.
func (n *NotificationService) Process(ctx context.Context, task *NotificationTask) error {
	switch task.Kind {
	case NotifyDirect:
		_, err := n.Send(task.To, task.Body)
		return err
	case NotifyClubBroadcast:
		n.BroadcastToClub(task.ClubID, task.Body)
		return nil
	default:
		logger.Warn().Str("kind", task.Kind).Msg("unknown notification kind, dropping")
		return nil
	}
}

// Send delivers one message to a phone number in E.164 form. Returns the
// gateway's message SID on success.
func (n *NotificationService) Send(to, body string) (string, error) {
	if !n.cfg.Enabled {
		logger.Debug().Str("to", to).Msg("whatsapp disabled, dropping message")
		return "", nil
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+n.cfg.FromNumber)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.cfg.BaseURL, n.cfg.AccountSID)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, raw)
	}

	var result struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		logger.Warn().Err(err).Msg("whatsapp gateway response was not json")
	}

	logger.Info().Str("to", to).Str("sid", result.SID).Msg("whatsapp message sent")
	return result.SID, nil
}

// BroadcastToClub sends a message to every club member who has a verified
// WhatsApp number and has consented to notifications. Individual failures
// are logged and skipped.
func (n *NotificationService) BroadcastToClub(clubID uint, body string) (sent, skipped int) {
	var recipients []models.User
	err := n.db.
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.club_id = ?", clubID).
		Where("users.whatsapp_verified = ? AND users.whatsapp_consent = ?", true, true).
		Where("users.whatsapp_number <> ''").
		Find(&recipients).Error
	if err != nil {
		logger.Error().Err(err).Uint("club_id", clubID).Msg("broadcast recipient query failed")
		return 0, 0
	}

	for _, u := range recipients {
		if _, err := n.Send(u.WhatsAppNumber, body); err != nil {
			logger.Warn().Err(err).Uint("user_id", u.ID).Msg("broadcast delivery failed")
			skipped++
			continue
		}
		sent++
	}

	logger.Info().Uint("club_id", clubID).Int("sent", sent).Int("skipped", skipped).
		Msg("club broadcast finished")
	return sent, skipped
}
