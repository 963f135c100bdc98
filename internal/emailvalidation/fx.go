package emailvalidation

import "go.uber.org/fx"

var Module = fx.Module("emailvalidation",
	fx.Provide(NewService),
)
