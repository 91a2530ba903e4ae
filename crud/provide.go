package crud

import (
	"reflect"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/inmem"
	"github.com/rise-and-shine/repokit/logger"
)

// BaseSettings carries the collaborator set a provider may use when
// building the default base.
type BaseSettings struct {
	// Store configures the in-memory base store.
	Store inmem.Config

	// Logger is handed to the store. Nil means no logging.
	Logger logger.Logger

	// Auditor, when set, must be an inmem.Auditor[T] for the contract's
	// domain type.
	Auditor any
}

// Provision is the result of building a default base.
type Provision struct {
	// Base is the instance serving the base method set.
	Base any

	// Capabilities are the exact contract types of this package,
	// instantiated with the contract's type arguments. Methods contributed
	// by one of them must be served by a fragment, never derived.
	Capabilities []reflect.Type
}

// BaseProvider is implemented by contract embeds that can build their own
// default base. The factory resolves it off the definition's zero value,
// where the embedded contract's method promotes.
type BaseProvider interface {
	ProvideBase(settings BaseSettings) (Provision, error)
}

// ProvideBase builds the default in-memory store for T keyed by ID.
func (CrudOps[T, ID]) ProvideBase(settings BaseSettings) (Provision, error) {
	opts := []inmem.Option[T, ID]{}
	if settings.Logger != nil {
		opts = append(opts, inmem.WithLogger[T, ID](settings.Logger))
	}
	if settings.Auditor != nil {
		a, ok := settings.Auditor.(inmem.Auditor[T])
		if !ok {
			return Provision{}, errx.New(
				"auditor does not fit the domain type",
				errx.WithCode(CodeBaseProvision),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{
					"domain":  reflect.TypeOf((*T)(nil)).Elem().String(),
					"auditor": reflect.TypeOf(settings.Auditor).String(),
				}),
			)
		}
		opts = append(opts, inmem.WithAuditor[T, ID](a))
	}

	store, err := inmem.New[T, ID](settings.Store, opts...)
	if err != nil {
		return Provision{}, err
	}

	return Provision{
		Base: store,
		Capabilities: []reflect.Type{
			reflect.TypeOf(CrudOps[T, ID]{}),
			reflect.TypeOf(PagingOps[T, ID]{}),
			reflect.TypeOf(QueryByExampleOps[T]{}),
			reflect.TypeOf(StreamOps[T]{}),
		},
	}, nil
}
