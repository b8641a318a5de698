package payment

import (
	"github.com/harborlane/paysync/internal/payment/repository"
	"github.com/harborlane/paysync/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
