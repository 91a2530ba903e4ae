package crud_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/crud"
	"github.com/rise-and-shine/repokit/inmem"
	"github.com/rise-and-shine/repokit/repometa"
)

type user struct {
	ID   int64
	Name string
}

type userRepo struct {
	crud.PagingOps[user, int64]
	crud.QueryByExampleOps[user]
	crud.StreamOps[user]
	FindByName func(ctx context.Context, name string) (*user, error)
}

func TestContractsCarryMarker(t *testing.T) {
	md, err := repometa.Resolve(reflect.TypeOf(userRepo{}), nil)
	require.NoError(t, err)

	assert.Equal(t, reflect.TypeOf(user{}), md.DomainType())
	assert.Equal(t, reflect.TypeOf(int64(0)), md.IDType())
	assert.True(t, md.IsPaging())

	save, ok := md.Method("Save")
	require.True(t, ok)
	assert.Equal(t, 2, save.Depth)

	page, ok := md.Method("FindPage")
	require.True(t, ok)
	assert.Equal(t, 1, page.Depth)
}

func TestDefinitionPromotesBaseProvider(t *testing.T) {
	zero := reflect.Zero(reflect.TypeOf(userRepo{})).Interface()

	provider, ok := zero.(crud.BaseProvider)
	require.True(t, ok, "embedding a crud contract must promote ProvideBase")

	provision, err := provider.ProvideBase(crud.BaseSettings{})
	require.NoError(t, err)
	require.NotNil(t, provision.Base)
	assert.Len(t, provision.Capabilities, 4)
}

func TestProvideBaseServesEveryContractMethod(t *testing.T) {
	provision, err := crud.CrudOps[user, int64]{}.ProvideBase(crud.BaseSettings{})
	require.NoError(t, err)

	contracts := []reflect.Type{
		reflect.TypeOf(crud.CrudOps[user, int64]{}),
		reflect.TypeOf(crud.PagingOps[user, int64]{}),
		reflect.TypeOf(crud.QueryByExampleOps[user]{}),
		reflect.TypeOf(crud.StreamOps[user]{}),
	}

	inst := reflect.ValueOf(provision.Base)
	for _, ct := range contracts {
		for i := range ct.NumField() {
			f := ct.Field(i)
			if f.Type.Kind() != reflect.Func {
				continue
			}
			m := inst.MethodByName(f.Name)
			require.True(t, m.IsValid(), "%s.%s has no base method", ct, f.Name)
			assert.Equal(t, f.Type, m.Type(), "%s.%s signature drift", ct, f.Name)
		}
	}
}

func TestProvideBaseStoreRoundTrip(t *testing.T) {
	provision, err := crud.CrudOps[user, int64]{}.ProvideBase(crud.BaseSettings{})
	require.NoError(t, err)

	store, ok := provision.Base.(*inmem.Store[user, int64])
	require.True(t, ok)

	saved, err := store.Save(t.Context(), &user{Name: "lin"})
	require.NoError(t, err)

	got, err := store.FindByID(t.Context(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "lin", got.Name)
}

func TestProvideBaseRejectsForeignAuditor(t *testing.T) {
	type other struct{ ID int64 }

	auditorForOther := struct{ inmem.Auditor[other] }{}

	_, err := crud.CrudOps[user, int64]{}.ProvideBase(crud.BaseSettings{
		Auditor: auditorForOther,
	})
	require.Error(t, err)

	e := errx.AsErrorX(err)
	assert.Equal(t, crud.CodeBaseProvision, e.Code())
}
