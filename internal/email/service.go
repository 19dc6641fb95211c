package email

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/hybrasil/storefront/internal/domain/order"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Service sends admin notifications via SMTP.
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{host: host, port: port, from: from}
}

func (s *Service) Configured() bool {
	return s != nil && s.host != ""
}

// SendOrderNotification mails the admin contact about a new pending order.
func (s *Service) SendOrderNotification(to string, o order.Order) error {
	if !s.Configured() || to == "" {
		return ErrNotConfigured
	}
	subject := fmt.Sprintf("Novo pedido %s — R$ %.2f", o.ID, o.Total)
	return s.send(to, subject, buildOrderBody(o))
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
