package application

import (
	"github.com/Builder-Lawyers/execution-service/internal/application/handlers"
	"github.com/Builder-Lawyers/execution-service/internal/application/query"
)

// Collection groups the use cases the presentation layer is wired to.
type Collection struct {
	*handlers.PaymentConfirmed
	*handlers.OsCanceled
	*query.GetExecution
	*query.HealthCheck
}
