// Package mail delivers verification codes and links to users
package mail

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender hands messages off for delivery. Delivery happens in the
// background and failures are only logged.
type Sender interface {
	SendVerificationCode(to, code string)
	SendResetPasswordEmail(to, token string)
	SendVerificationEmail(to, token string)
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// PublicURL is the frontend base URL used in links
	PublicURL string
}

type SMTP struct {
	cfg  Config
	dial func(m ...*gomail.Message) error
	wg   sync.WaitGroup
}

func NewSMTP(cfg Config) *SMTP {
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTP{
		cfg:  cfg,
		dial: d.DialAndSend,
	}
}

func (s *SMTP) SendVerificationCode(to, code string) {
	s.send(to, "Your verification code",
		fmt.Sprintf("Your verification code is <b>%s</b>.<br><br>If you did not create an account, please ignore this email.", code))
}

func (s *SMTP) SendResetPasswordEmail(to, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, url.QueryEscape(token))
	s.send(to, "Reset your password",
		fmt.Sprintf("To reset your password, click <a href='%s'>here</a>.<br><br>If you did not request a password reset, please ignore this email.", link))
}

func (s *SMTP) SendVerificationEmail(to, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.PublicURL, url.QueryEscape(token))
	s.send(to, "Verify your email",
		fmt.Sprintf("To verify your email, click <a href='%s'>here</a>.", link))
}

func (s *SMTP) send(to, subject, body string) {
	if to == s.cfg.From {
		zap.L().Warn("Refusing to send mail to the sender address", zap.String("to", to))
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.dial(m); err != nil {
			zap.L().Error("Failed to send mail", zap.String("subject", subject), zap.Error(err))
			return
		}

		zap.L().Debug("Mail sent", zap.String("subject", subject))
	}()
}

// Wait blocks until every queued message was handed to the SMTP server
func (s *SMTP) Wait() {
	s.wg.Wait()
}

// Log is used when no SMTP host is configured. It only logs that a
// message would have been sent.
type Log struct{}

func (Log) SendVerificationCode(to, code string) {
	zap.L().Info("Mail disabled, verification code not sent", zap.String("to", to))
}

func (Log) SendResetPasswordEmail(to, token string) {
	zap.L().Info("Mail disabled, reset password email not sent", zap.String("to", to))
}

func (Log) SendVerificationEmail(to, token string) {
	zap.L().Info("Mail disabled, verification email not sent", zap.String("to", to))
}
