package customerlink

import (
	"github.com/harborlane/paysync/internal/customerlink/repository"
	"github.com/harborlane/paysync/internal/customerlink/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customerlink.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
