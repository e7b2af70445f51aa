package access

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/wifinitylabs/wifinity/internal/access/adapters/routeros"
	accessdomain "github.com/wifinitylabs/wifinity/internal/access/domain"
	"github.com/wifinitylabs/wifinity/internal/config"
	plandomain "github.com/wifinitylabs/wifinity/internal/plan/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
)

// noopProvisioner stands in when no router is configured, so development
// environments can bill without touching network gear.
type noopProvisioner struct {
	log *zap.Logger
}

func (n noopProvisioner) Enable(_ context.Context, sub *subscriberdomain.Subscriber, _ *plandomain.Plan) error {
	n.log.Debug("access enable skipped, no router configured", zap.String("phone", sub.Phone))
	return nil
}

func (n noopProvisioner) Disable(_ context.Context, sub *subscriberdomain.Subscriber, _ *plandomain.Plan) error {
	n.log.Debug("access disable skipped, no router configured", zap.String("phone", sub.Phone))
	return nil
}

func NewProvisioner(cfg config.Config, log *zap.Logger) accessdomain.Provisioner {
	if cfg.RouterOS.BaseURL == "" {
		return noopProvisioner{log: log.Named("access.noop")}
	}
	return routeros.New(cfg.RouterOS, log)
}

var Module = fx.Module("access",
	fx.Provide(NewProvisioner),
)
