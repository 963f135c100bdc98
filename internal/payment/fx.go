package payment

import (
	"go.uber.org/fx"

	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/payment/adapter"
	"github.com/covline/covline/internal/payment/repository"
	"github.com/covline/covline/internal/payment/service"
)

func provideAuthenticator(cfg config.Config) *adapter.Authenticator {
	return adapter.NewAuthenticator(cfg.PaymentWebhook)
}

var Module = fx.Module("payment",
	fx.Provide(provideAuthenticator),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
