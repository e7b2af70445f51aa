package payment

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/wifinitylabs/wifinity/internal/config"
	"github.com/wifinitylabs/wifinity/internal/payment/adapters/mpesa"
	paymentdomain "github.com/wifinitylabs/wifinity/internal/payment/domain"
	"github.com/wifinitylabs/wifinity/internal/payment/service"
)

var Module = fx.Module("payment",
	fx.Provide(func(cfg config.Config, log *zap.Logger) paymentdomain.Gateway {
		return mpesa.New(cfg.Mpesa, log)
	}),
	fx.Provide(service.NewOrchestrator),
)
