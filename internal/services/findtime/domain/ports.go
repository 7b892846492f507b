package domain

import "context"

// ServicePort is what transports and other modules call
type ServicePort interface {
	FindTime(ctx context.Context, in FindTimeInput) (FindTimeResult, error)
	Variables(ctx context.Context) ([]Variable, error)
}
