package price

import (
	"github.com/harborlane/paysync/internal/price/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("price.catalog",
	fx.Provide(repository.Provide),
)
