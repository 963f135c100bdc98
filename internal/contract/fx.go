package contract

import "go.uber.org/fx"

var Module = fx.Module("contract",
	fx.Provide(NewStore),
	fx.Provide(NewHTTPDownloader),
)
