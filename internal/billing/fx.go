package billing

import (
	"go.uber.org/fx"

	"github.com/wifinitylabs/wifinity/internal/billing/service"
)

var Module = fx.Module("billing.service",
	fx.Provide(service.NewService),
)
