package templates

import (
	"strings"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = strings.TrimSpace(ip) } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the common fields and applies options.
func NewBaseEmailData(appName, typ, name, username, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Username:       username,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
		AppName:        appName,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(appName, name, username, email string) map[string]any {
	return ToMap(NewBaseEmailData(appName, Welcome, name, username, email))
}

func NewLoginNotificationData(appName, name, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(appName, LoginNotification, name, username, email, opts...))
}

func NewPasswordChangedData(appName, name, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(appName, PasswordChanged, name, username, email, opts...))
}
