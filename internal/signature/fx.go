package signature

import (
	"go.uber.org/fx"

	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/signature/adapter"
	"github.com/covline/covline/internal/signature/service"
)

func provideAuthenticator(cfg config.Config) *adapter.Authenticator {
	return adapter.NewAuthenticator(cfg.SignatureEvents)
}

var Module = fx.Module("signature",
	fx.Provide(provideAuthenticator),
	fx.Provide(service.NewService),
)
