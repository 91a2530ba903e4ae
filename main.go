package main

// Demo wiring for the repository toolkit: a definition-first repository
// composed from base CRUD, streaming and query methods, built by a factory
// carrying decorators and invocation listeners.

import (
	"context"
	"os"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/crud"
	"github.com/rise-and-shine/repokit/inmem"
	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/observability/repometrics"
	"github.com/rise-and-shine/repokit/optional"
	"github.com/rise-and-shine/repokit/qbe"
	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repofactory/wrapper"
	"github.com/rise-and-shine/repokit/repoquery"
	"github.com/rise-and-shine/repokit/sorter"
)

// Order is the demo domain entity. Its int64 key auto-increments in the
// in-memory store.
type Order struct {
	ID       int64
	Customer string
	Status   string
	Total    float64
}

// OrderQueries methods have no fragment implementation; the factory
// resolves them through the query strategy below.
type OrderQueries struct {
	FindByCustomer func(ctx context.Context, customer string) ([]Order, error)
	FirstByStatus  func(ctx context.Context, status string) (optional.Optional[Order], error)
}

// orderRepo composes base CRUD, streaming and query methods.
type orderRepo struct {
	crud.CrudOps[Order, int64]
	crud.StreamOps[Order]
	OrderQueries
}

func main() {
	log, err := logger.New(logger.Config{Level: "debug", Encoding: "console"})
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck // best effort on exit

	store, err := inmem.New[Order, int64](inmem.Config{})
	fatalIf(log, err)

	metrics, err := repometrics.NewListener(nil)
	fatalIf(log, err)

	factory, err := repofactory.New(repofactory.Config{},
		repofactory.WithLogger(log),
		repofactory.WithDecorators(
			wrapper.NewRecoveryDecorator(log),
			wrapper.NewLoggingDecorator(log, wrapper.WithCallArgs()),
		),
		repofactory.WithListeners(metrics),
		repofactory.WithQueryLookup(orderQueries(store)),
	)
	fatalIf(log, err)

	repo, err := repofactory.Build[orderRepo](factory,
		repofactory.WithRepositoryName("orders"),
		repofactory.WithBase(store),
	)
	fatalIf(log, err)

	ctx := context.Background()

	for _, o := range []*Order{
		{Customer: "ann", Status: "open", Total: 42.5},
		{Customer: "bob", Status: "open", Total: 12},
		{Customer: "ann", Status: "done", Total: 99.9},
	} {
		_, err := repo.Save(ctx, o)
		fatalIf(log, err)
	}

	count, err := repo.Count(ctx)
	fatalIf(log, err)
	log.Infow("seeded orders", "count", count)

	anns, err := repo.FindByCustomer(ctx, "ann")
	fatalIf(log, err)
	log.Infow("orders by customer", "customer", "ann", "found", len(anns))

	first, err := repo.FirstByStatus(ctx, "open")
	fatalIf(log, err)
	if o, ok := first.Get(); ok {
		log.Infow("first open order", "id", o.ID, "total", o.Total)
	}

	stream, err := repo.StreamAll(ctx)
	fatalIf(log, err)

	var revenue float64
	for o, err := range stream.Seq2() {
		fatalIf(log, err)
		revenue += o.Total
	}
	log.Infow("revenue", "total", revenue)
}

// orderQueries resolves the repository's query methods against the shared
// in-memory store.
func orderQueries(store *inmem.Store[Order, int64]) repoquery.LookupStrategy {
	return repoquery.LookupFunc(func(m repoquery.Method) (repoquery.Query, error) {
		switch m.Name {
		case "FindByCustomer":
			return repoquery.QueryFunc(func(ctx context.Context, args []any) (any, error) {
				probe := Order{Customer: args[0].(string)}
				return store.FindByExample(ctx, qbe.Of(&probe), sorter.MakeFromStr("-total", "total"))
			}), nil

		case "FirstByStatus":
			return repoquery.QueryFunc(func(ctx context.Context, args []any) (any, error) {
				probe := Order{Status: args[0].(string)}
				matched, err := store.FindByExample(ctx, qbe.Of(&probe), sorter.MakeFromStr("id", "id"))
				if err != nil || len(matched) == 0 {
					return nil, err
				}
				return &matched[0], nil
			}), nil
		}
		return nil, errx.New(
			"no query registered for method "+m.Name,
			errx.WithType(errx.T_NotFound),
		)
	})
}

func fatalIf(log logger.Logger, err error) {
	if err == nil {
		return
	}
	log.Error(err)
	_ = log.Sync()
	os.Exit(1)
}
