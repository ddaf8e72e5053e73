package paymentsconfig

import (
	"github.com/smallbiznis/pathway/internal/paymentsconfig/repository"
	"github.com/smallbiznis/pathway/internal/paymentsconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentsconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
