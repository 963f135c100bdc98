package token

import (
	"github.com/covline/covline/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("token",
	fx.Provide(provideCipher),
	fx.Provide(NewCodec),
)

func provideCipher(cfg config.Config) (*Cipher, error) {
	return NewCipher(cfg.Crypto)
}
