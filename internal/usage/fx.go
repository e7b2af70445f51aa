package usage

import (
	"go.uber.org/fx"

	"github.com/wifinitylabs/wifinity/internal/usage/repository"
	"github.com/wifinitylabs/wifinity/internal/usage/service"
)

var Module = fx.Module("usage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
