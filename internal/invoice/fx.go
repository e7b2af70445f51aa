package invoice

import (
	"go.uber.org/fx"

	"github.com/wifinitylabs/wifinity/internal/invoice/render"
	"github.com/wifinitylabs/wifinity/internal/invoice/repository"
)

var Module = fx.Module("invoice",
	fx.Provide(render.NewRenderer),
	fx.Provide(repository.Provide),
)
