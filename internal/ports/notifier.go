package ports

import (
	"context"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

// Notifier presents the running dashboard to the user.
type Notifier interface {
	// Notify renders one cycle update. The console implementation prints a
	// compact line, or full tables in table mode.
	Notify(ctx context.Context, update domain.DashboardUpdate) error
}
