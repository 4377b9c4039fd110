package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// ErrNotOnWhatsApp is returned when a phone number has no WhatsApp account
var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

type Config struct {
	DataDir string
}

// Service delivers invitation links over a linked WhatsApp device
type Service struct {
	client *whatsmeow.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewService opens the device session stored under cfg.DataDir
func NewService(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	service := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		cfg:    cfg,
		log:    logger.With().Str("component", "WhatsApp").Logger(),
	}
	service.client.AddEventHandler(service.eventHandler)

	return service, nil
}

var phoneReplacer = strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "")

// NormalizePhoneNumber strips formatting and converts local Israeli numbers
// (05XXXXXXXX, 9720...) to the 972 international form.
func NormalizePhoneNumber(phoneNumber string) string {
	phoneNumber = phoneReplacer.Replace(phoneNumber)

	if strings.HasPrefix(phoneNumber, "0") && len(phoneNumber) == 10 {
		phoneNumber = "972" + phoneNumber[1:]
	}
	if strings.HasPrefix(phoneNumber, "9720") {
		phoneNumber = "972" + phoneNumber[4:]
	}

	return phoneNumber
}

// Connect connects to WhatsApp, printing a pairing QR code to out when the
// device is not linked yet.
func (s *Service) Connect(ctx context.Context, out io.Writer) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		q, err := qrcode.New(evt.Code, qrcode.Medium)
		if err != nil {
			fmt.Fprintf(out, "QR Code: %s\n", evt.Code)
			continue
		}
		fmt.Fprintln(out, "\n"+q.ToSmallString(false))
		fmt.Fprintln(out, "📱 Scan the QR code above in WhatsApp > Settings > Linked Devices")
	}
	return nil
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// SendMessage sends a text message to a phone number after checking the
// number is on WhatsApp.
func (s *Service) SendMessage(ctx context.Context, phoneNumber, message string) error {
	phoneNumber = NormalizePhoneNumber(phoneNumber)

	jid, err := s.resolveJID(ctx, phoneNumber)
	if err != nil {
		return err
	}

	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Sending message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", phoneNumber, err)
	}

	s.log.Info().Str("phone", phoneNumber).Str("message_id", string(sent.ID)).Msg("Message sent")
	return nil
}

func (s *Service) resolveJID(ctx context.Context, phoneNumber string) (types.JID, error) {
	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return types.JID{}, fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return types.JID{}, fmt.Errorf("%w: %s", ErrNotOnWhatsApp, phoneNumber)
	}
	return resp[0].JID, nil
}

func (s *Service) eventHandler(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}
