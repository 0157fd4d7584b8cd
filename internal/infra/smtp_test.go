package infra

import (
	"testing"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.ErrorIs(t, m.Send("owner@shop.test", "subject", "body"), ErrMailerDisabled)
	assert.ErrorIs(t, m.SendAttachment("owner@shop.test", "s", "b", "r.pdf", "application/pdf", []byte("%PDF")), ErrMailerDisabled)
}

func TestNewMailer_Addressing(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail.local", SMTPPort: 1025})
	assert.Equal(t, "mail.local:1025", m.addr)
	assert.Equal(t, "stock@mail.local", m.from)
	assert.Nil(t, m.auth)

	m = NewMailer(&config.Config{SMTPHost: "smtp.shop.test", SMTPPort: 587, SMTPUser: "alerts@shop.test", SMTPPassword: "pw"})
	assert.Equal(t, "alerts@shop.test", m.from)
	require.NotNil(t, m.auth)
}
