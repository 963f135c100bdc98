package certificate

import "go.uber.org/fx"

var Module = fx.Module("certificate",
	fx.Provide(NewGenerator),
)
