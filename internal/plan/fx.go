package plan

import (
	"go.uber.org/fx"

	"github.com/wifinitylabs/wifinity/internal/plan/repository"
)

var Module = fx.Module("plan",
	fx.Provide(repository.Provide),
)
