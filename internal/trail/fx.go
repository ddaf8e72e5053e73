package trail

import (
	"github.com/smallbiznis/pathway/internal/trail/repository"
	"github.com/smallbiznis/pathway/internal/trail/service"
	"go.uber.org/fx"
)

var Module = fx.Module("trail.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
