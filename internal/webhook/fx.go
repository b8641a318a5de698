package webhook

import (
	"github.com/harborlane/paysync/internal/webhook/repository"
	"github.com/harborlane/paysync/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
