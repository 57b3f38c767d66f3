package commands

import (
	"context"

	"github.com/architeacher/storefront/pkg/decorator"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	RegisterSaleCommand struct {
		Request model.SaleRequest
	}

	RegisterSaleCommandHandler = decorator.CommandHandler[RegisterSaleCommand, *model.Sale]

	registerSaleCommandHandler struct {
		registrar ports.SaleRegistrar
	}
)

func NewRegisterSaleCommandHandler(
	registrar ports.SaleRegistrar,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) RegisterSaleCommandHandler {
	return decorator.ApplyCommandDecorators[RegisterSaleCommand, *model.Sale](
		registerSaleCommandHandler{registrar: registrar},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h registerSaleCommandHandler) Handle(ctx context.Context, cmd RegisterSaleCommand) (*model.Sale, error) {
	return h.registrar.RegisterSale(ctx, cmd.Request)
}
