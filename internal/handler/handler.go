package handler

import (
	"shophub/internal/service"
	"shophub/pkg/config"
)

var (
	notifier       service.Notifier
	adminEmail     string
	bootstrapToken string
)

// Configure wires the notification capability and the administrative
// settings used by the handlers. Called once at startup.
func Configure(cfg *config.Config, n service.Notifier) {
	notifier = n
	adminEmail = cfg.SMTP.AdminEmail
	bootstrapToken = cfg.Admin.BootstrapToken
}
