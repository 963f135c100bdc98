package policy

import (
	"github.com/covline/covline/internal/policy/repository"
	"github.com/covline/covline/internal/policy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("policy.lifecycle",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
