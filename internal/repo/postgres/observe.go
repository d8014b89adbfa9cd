package postgres

import "github.com/geocoder89/recipehub/internal/observability"

type observed struct {
	prom *observability.Prom
}

func (o observed) observe(op string, fn func() error) error {
	if o.prom != nil {
		return o.prom.ObserveDB(op, fn)
	}
	return fn()
}
