package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/sanjayvanan/IntelliBid/internal/config"
	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// Sender delivers win notifications over SMTP. Failures propagate so the
// enclosing lifecycle job is retried; state transitions are never rolled
// back on a failed send.
type Sender struct {
	dialer *gomail.Dialer
	from   string
	users  domain.UserDirectory
	log    logger.Logger
}

func NewSender(cfg config.SMTPConfig, users domain.UserDirectory, log logger.Logger) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		users:  users,
		log:    log,
	}
}

func (s *Sender) NotifyWinner(ctx context.Context, userID, itemName string, amount float64) error {
	subject := "You Won the Auction!"
	body := fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
          <h1 style="color: #1aac83;">Congratulations!</h1>
          <p>You have officially won the auction for:</p>
          <h2 style="border-bottom: 2px solid #eee; padding-bottom: 10px;">%s</h2>
          <p style="font-size: 1.2em;"><strong>Winning Bid:</strong> $%.2f</p>
          <p>Please login to your account to claim your item.</p>
          <br/>
          <p style="font-size: 0.8em; color: #777;">The IntelliBid Team</p>
        </div>`, itemName, amount)

	return s.send(ctx, userID, subject, body)
}

func (s *Sender) NotifySecondChance(ctx context.Context, userID, itemName string, amount float64) error {
	subject := "Second Chance Offer - You're Now the Winner!"
	body := fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
          <h1 style="color: #1aac83;">Good news!</h1>
          <p>The previous winner didn't complete their purchase, so the auction for:</p>
          <h2 style="border-bottom: 2px solid #eee; padding-bottom: 10px;">%s</h2>
          <p style="font-size: 1.2em;"><strong>Your Winning Bid:</strong> $%.2f</p>
          <p>is now yours. Please login to your account to complete the payment.</p>
          <br/>
          <p style="font-size: 0.8em; color: #777;">The IntelliBid Team</p>
        </div>`, itemName, amount)

	return s.send(ctx, userID, subject, body)
}

func (s *Sender) send(ctx context.Context, userID, subject, body string) error {
	email, err := s.users.GetEmail(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolving address for user %s: %w", userID, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", email, err)
	}

	s.log.Info("notification sent", "user_id", userID, "subject", subject)
	return nil
}
