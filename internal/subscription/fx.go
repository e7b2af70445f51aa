package subscription

import (
	"go.uber.org/fx"

	"github.com/wifinitylabs/wifinity/internal/subscription/repository"
)

var Module = fx.Module("subscription",
	fx.Provide(repository.Provide),
)
