package externalapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

const salePath = "/vender"

// SalesReporter posts sale summaries. It makes exactly one attempt.
type SalesReporter struct {
	client  *Client
	timeout time.Duration
}

func NewSalesReporter(client *Client, timeout time.Duration) *SalesReporter {
	return &SalesReporter{
		client:  client,
		timeout: timeout,
	}
}

// BreakerState reports the state of the breaker guarding sale reports.
func (r *SalesReporter) BreakerState() string {
	return r.client.BreakerState(salePath)
}

func (r *SalesReporter) Report(ctx context.Context, report model.SaleReport) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(newSaleReportDTO(report))
	if err != nil {
		return fmt.Errorf("encoding sale report: %w", err)
	}

	if err := r.client.post(ctx, salePath, payload); err != nil {
		return fmt.Errorf("reporting sale: %w", err)
	}

	return nil
}
