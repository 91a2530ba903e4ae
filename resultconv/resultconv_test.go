package resultconv_test

import (
	"errors"
	"iter"
	"reflect"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/future"
	"github.com/rise-and-shine/repokit/optional"
	"github.com/rise-and-shine/repokit/pagination"
	"github.com/rise-and-shine/repokit/resultconv"
	"github.com/rise-and-shine/repokit/streams"
	"github.com/rise-and-shine/repokit/wrap"
)

type invoiceRecord struct {
	ID     int64
	Number string
	Total  int64
}

type invoiceView struct {
	ID     int64
	Number string
}

var testRecords = []invoiceRecord{
	{ID: 1, Number: "INV-1", Total: 100},
	{ID: 2, Number: "INV-2", Total: 250},
	{ID: 3, Number: "INV-3", Total: 75},
}

func callCtx() resultconv.Context {
	return resultconv.Context{Repository: "invoice", Method: "FindByNumber"}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errx.AsErrorX(err).Code())
}

func TestNilBecomesEmptyContainer(t *testing.T) {
	h := resultconv.NewHandler(wrap.NewRegistry())
	cc := callCtx()

	t.Run("slice", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[[]invoiceRecord](), cc)
		require.NoError(t, err)
		items, ok := out.([]invoiceRecord)
		require.True(t, ok)
		assert.NotNil(t, items)
		assert.Empty(t, items)

		again, err := h.PostProcess(out, typeOf[[]invoiceRecord](), cc)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	})

	t.Run("map", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[map[string]invoiceRecord](), cc)
		require.NoError(t, err)
		m, ok := out.(map[string]invoiceRecord)
		require.True(t, ok)
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("chan is closed", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[<-chan invoiceRecord](), cc)
		require.NoError(t, err)
		ch, ok := out.(<-chan invoiceRecord)
		require.True(t, ok)
		_, open := <-ch
		assert.False(t, open)
	})

	t.Run("seq yields nothing", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[iter.Seq[invoiceRecord]](), cc)
		require.NoError(t, err)
		seq, ok := out.(iter.Seq[invoiceRecord])
		require.True(t, ok)
		count := 0
		for range seq {
			count++
		}
		assert.Zero(t, count)
	})

	t.Run("optional", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[optional.Optional[invoiceRecord]](), cc)
		require.NoError(t, err)
		opt, ok := out.(optional.Optional[invoiceRecord])
		require.True(t, ok)
		assert.False(t, opt.IsPresent())

		again, err := h.PostProcess(out, typeOf[optional.Optional[invoiceRecord]](), cc)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	})

	t.Run("page", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[pagination.Page[invoiceRecord]](), cc)
		require.NoError(t, err)
		page, ok := out.(pagination.Page[invoiceRecord])
		require.True(t, ok)
		assert.Empty(t, page.Content)
		assert.Zero(t, page.TotalCount)
	})

	t.Run("stream", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[*streams.Stream[invoiceRecord]](), cc)
		require.NoError(t, err)
		st, ok := out.(*streams.Stream[invoiceRecord])
		require.True(t, ok)
		_, more, err := st.Next()
		require.NoError(t, err)
		assert.False(t, more)
	})

	t.Run("future of optional completes empty", func(t *testing.T) {
		out, err := h.PostProcess(nil, typeOf[*future.Future[optional.Optional[invoiceRecord]]](), cc)
		require.NoError(t, err)
		fut, ok := out.(*future.Future[optional.Optional[invoiceRecord]])
		require.True(t, ok)
		opt, err := fut.Await(t.Context())
		require.NoError(t, err)
		assert.False(t, opt.IsPresent())
	})
}

func TestNilPlainResultPolicy(t *testing.T) {
	h := resultconv.NewHandler(nil)

	t.Run("pointer without nil permission fails", func(t *testing.T) {
		_, err := h.PostProcess(nil, typeOf[*invoiceRecord](), callCtx())
		requireCode(t, err, resultconv.CodeEmptyResult)
		require.Equal(t, errx.T_NotFound, errx.GetType(err))
		assert.Equal(t, "FindByNumber", errx.AsErrorX(err).Details()["method"])
	})

	t.Run("pointer with nil permission", func(t *testing.T) {
		cc := callCtx()
		cc.Nullable = true
		out, err := h.PostProcess(nil, typeOf[*invoiceRecord](), cc)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("struct value with nil permission", func(t *testing.T) {
		cc := callCtx()
		cc.Nullable = true
		out, err := h.PostProcess(nil, typeOf[invoiceRecord](), cc)
		require.NoError(t, err)
		assert.Equal(t, invoiceRecord{}, out)
	})

	t.Run("scalar without nil permission fails", func(t *testing.T) {
		_, err := h.PostProcess(nil, typeOf[int64](), callCtx())
		requireCode(t, err, resultconv.CodeEmptyResult)
	})

	t.Run("typed nil pointer follows the same policy", func(t *testing.T) {
		_, err := h.PostProcess((*invoiceRecord)(nil), typeOf[*invoiceRecord](), callCtx())
		requireCode(t, err, resultconv.CodeEmptyResult)
	})
}

func TestIdentityPassThrough(t *testing.T) {
	h := resultconv.NewHandler(nil)

	out, err := h.PostProcess(testRecords, typeOf[[]invoiceRecord](), callCtx())
	require.NoError(t, err)
	assert.Equal(t, testRecords, out)

	rec := testRecords[0]
	single, err := h.PostProcess(&rec, typeOf[*invoiceRecord](), callCtx())
	require.NoError(t, err)
	assert.Same(t, &rec, single)
}

func TestSliceVocabularyRoundTrips(t *testing.T) {
	h := resultconv.NewHandler(nil)
	cc := callCtx()

	t.Run("slice to chan", func(t *testing.T) {
		out, err := h.PostProcess(testRecords, typeOf[<-chan invoiceRecord](), cc)
		require.NoError(t, err)
		ch := out.(<-chan invoiceRecord)
		var got []invoiceRecord
		for v := range ch {
			got = append(got, v)
		}
		assert.Equal(t, testRecords, got)
	})

	t.Run("slice to seq", func(t *testing.T) {
		out, err := h.PostProcess(testRecords, typeOf[iter.Seq[invoiceRecord]](), cc)
		require.NoError(t, err)
		seq := out.(iter.Seq[invoiceRecord])
		var got []invoiceRecord
		for v := range seq {
			got = append(got, v)
		}
		assert.Equal(t, testRecords, got)
	})

	t.Run("slice to seq2 carries nil errors", func(t *testing.T) {
		out, err := h.PostProcess(testRecords, typeOf[iter.Seq2[invoiceRecord, error]](), cc)
		require.NoError(t, err)
		seq := out.(iter.Seq2[invoiceRecord, error])
		var got []invoiceRecord
		for v, iterErr := range seq {
			require.NoError(t, iterErr)
			got = append(got, v)
		}
		assert.Equal(t, testRecords, got)
	})

	t.Run("slice to stream", func(t *testing.T) {
		out, err := h.PostProcess(testRecords, typeOf[*streams.Stream[invoiceRecord]](), cc)
		require.NoError(t, err)
		got, err := out.(*streams.Stream[invoiceRecord]).Collect()
		require.NoError(t, err)
		assert.Equal(t, testRecords, got)
	})

	t.Run("slice to page", func(t *testing.T) {
		out, err := h.PostProcess(testRecords, typeOf[pagination.Page[invoiceRecord]](), cc)
		require.NoError(t, err)
		page := out.(pagination.Page[invoiceRecord])
		assert.Equal(t, testRecords, page.Content)
		assert.Equal(t, int64(len(testRecords)), page.TotalCount)
	})

	t.Run("stream to slice", func(t *testing.T) {
		out, err := h.PostProcess(streams.FromSlice(testRecords), typeOf[[]invoiceRecord](), cc)
		require.NoError(t, err)
		assert.Equal(t, testRecords, out)
	})

	t.Run("chan to slice", func(t *testing.T) {
		ch := make(chan invoiceRecord, len(testRecords))
		for _, r := range testRecords {
			ch <- r
		}
		close(ch)
		out, err := h.PostProcess(ch, typeOf[[]invoiceRecord](), cc)
		require.NoError(t, err)
		assert.Equal(t, testRecords, out)
	})

	t.Run("seq to stream", func(t *testing.T) {
		seq := iter.Seq[invoiceRecord](func(yield func(invoiceRecord) bool) {
			for _, r := range testRecords {
				if !yield(r) {
					return
				}
			}
		})
		out, err := h.PostProcess(seq, typeOf[*streams.Stream[invoiceRecord]](), cc)
		require.NoError(t, err)
		got, err := out.(*streams.Stream[invoiceRecord]).Collect()
		require.NoError(t, err)
		assert.Equal(t, testRecords, got)
	})
}

func TestStreamErrorSignalPreserved(t *testing.T) {
	errBoom := errors.New("boom")
	h := resultconv.NewHandler(nil)
	cc := callCtx()

	failing := func() *streams.Stream[invoiceRecord] {
		i := 0
		return streams.New(func() (invoiceRecord, bool, error) {
			if i < 2 {
				i++
				return testRecords[i-1], true, nil
			}
			return invoiceRecord{}, false, errBoom
		})
	}

	t.Run("stream to seq2 yields the error", func(t *testing.T) {
		out, err := h.PostProcess(failing(), typeOf[iter.Seq2[invoiceRecord, error]](), cc)
		require.NoError(t, err)

		var got []invoiceRecord
		var gotErr error
		for v, iterErr := range out.(iter.Seq2[invoiceRecord, error]) {
			if iterErr != nil {
				gotErr = iterErr
				break
			}
			got = append(got, v)
		}
		assert.Equal(t, testRecords[:2], got)
		require.ErrorIs(t, gotErr, errBoom)
	})

	t.Run("stream to slice surfaces the error", func(t *testing.T) {
		_, err := h.PostProcess(failing(), typeOf[[]invoiceRecord](), cc)
		require.ErrorIs(t, err, errBoom)
	})

	t.Run("lazy element conversion surfaces per element", func(t *testing.T) {
		out, err := h.PostProcess(failing(), typeOf[*streams.Stream[invoiceView]](), cc)
		require.NoError(t, err)

		st := out.(*streams.Stream[invoiceView])
		first, more, err := st.Next()
		require.NoError(t, err)
		require.True(t, more)
		assert.Equal(t, invoiceView{ID: 1, Number: "INV-1"}, first)

		_, more, err = st.Next()
		require.NoError(t, err)
		require.True(t, more)

		_, _, err = st.Next()
		require.ErrorIs(t, err, errBoom)
	})
}

func TestSingleExtraction(t *testing.T) {
	h := resultconv.NewHandler(nil)
	cc := callCtx()

	t.Run("one element slice to pointer", func(t *testing.T) {
		out, err := h.PostProcess(testRecords[:1], typeOf[*invoiceRecord](), cc)
		require.NoError(t, err)
		assert.Equal(t, &testRecords[0], out)
	})

	t.Run("empty slice to pointer fails", func(t *testing.T) {
		_, err := h.PostProcess([]invoiceRecord{}, typeOf[*invoiceRecord](), cc)
		requireCode(t, err, resultconv.CodeEmptyResult)
	})

	t.Run("two elements to pointer fails", func(t *testing.T) {
		_, err := h.PostProcess(testRecords[:2], typeOf[*invoiceRecord](), cc)
		requireCode(t, err, resultconv.CodeMultipleResults)
		assert.Equal(t, "2", errx.AsErrorX(err).Details()["count"])
	})

	t.Run("two element stream to pointer fails", func(t *testing.T) {
		_, err := h.PostProcess(streams.FromSlice(testRecords[:2]), typeOf[*invoiceRecord](), cc)
		requireCode(t, err, resultconv.CodeMultipleResults)
	})

	t.Run("one element slice to projected optional", func(t *testing.T) {
		out, err := h.PostProcess(testRecords[:1], typeOf[optional.Optional[invoiceView]](), cc)
		require.NoError(t, err)
		view, present := out.(optional.Optional[invoiceView]).Get()
		require.True(t, present)
		assert.Equal(t, invoiceView{ID: 1, Number: "INV-1"}, view)
	})

	t.Run("nil pointer to optional is empty", func(t *testing.T) {
		out, err := h.PostProcess((*invoiceRecord)(nil), typeOf[optional.Optional[invoiceRecord]](), cc)
		require.NoError(t, err)
		assert.False(t, out.(optional.Optional[invoiceRecord]).IsPresent())
	})
}

func TestElementConversion(t *testing.T) {
	h := resultconv.NewHandler(nil)
	cc := callCtx()

	t.Run("struct projection across slices", func(t *testing.T) {
		out, err := h.PostProcess(testRecords, typeOf[[]invoiceView](), cc)
		require.NoError(t, err)
		assert.Equal(t, []invoiceView{
			{ID: 1, Number: "INV-1"},
			{ID: 2, Number: "INV-2"},
			{ID: 3, Number: "INV-3"},
		}, out)
	})

	t.Run("scalar coercion across slices", func(t *testing.T) {
		out, err := h.PostProcess([]int64{1, 2}, typeOf[[]string](), cc)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, out)
	})

	t.Run("pointer projection", func(t *testing.T) {
		out, err := h.PostProcess(&testRecords[1], typeOf[*invoiceView](), cc)
		require.NoError(t, err)
		assert.Equal(t, &invoiceView{ID: 2, Number: "INV-2"}, out)
	})

	t.Run("plain value into nested containers", func(t *testing.T) {
		out, err := h.PostProcess(testRecords[0], typeOf[*future.Future[optional.Optional[invoiceView]]](), cc)
		require.NoError(t, err)
		opt, err := out.(*future.Future[optional.Optional[invoiceView]]).Await(t.Context())
		require.NoError(t, err)
		view, present := opt.Get()
		require.True(t, present)
		assert.Equal(t, invoiceView{ID: 1, Number: "INV-1"}, view)
	})
}

func TestAsyncConversion(t *testing.T) {
	h := resultconv.NewHandler(nil)
	cc := callCtx()

	t.Run("completed future converts elements", func(t *testing.T) {
		out, err := h.PostProcess(future.Completed(testRecords[0]), typeOf[*future.Future[invoiceView]](), cc)
		require.NoError(t, err)
		view, err := out.(*future.Future[invoiceView]).Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, invoiceView{ID: 1, Number: "INV-1"}, view)
	})

	t.Run("failed future propagates the error", func(t *testing.T) {
		errBoom := errors.New("boom")
		out, err := h.PostProcess(future.Failed[invoiceRecord](errBoom), typeOf[*future.Future[invoiceView]](), cc)
		require.NoError(t, err)
		_, err = out.(*future.Future[invoiceView]).Await(t.Context())
		require.ErrorIs(t, err, errBoom)
	})

	t.Run("conversion does not block on pending futures", func(t *testing.T) {
		fut, complete := future.Deferred[invoiceRecord]()
		out, err := h.PostProcess(fut, typeOf[*future.Future[invoiceView]](), cc)
		require.NoError(t, err)

		converted := out.(*future.Future[invoiceView])
		_, done, _ := converted.Peek()
		require.False(t, done)

		complete(testRecords[2], nil)
		view, err := converted.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, invoiceView{ID: 3, Number: "INV-3"}, view)
	})

	t.Run("nil completion resolves to the empty element", func(t *testing.T) {
		out, err := h.PostProcess(
			future.Completed((*invoiceRecord)(nil)),
			typeOf[*future.Future[optional.Optional[invoiceView]]](), cc,
		)
		require.NoError(t, err)
		opt, err := out.(*future.Future[optional.Optional[invoiceView]]).Await(t.Context())
		require.NoError(t, err)
		assert.False(t, opt.IsPresent())
	})

	t.Run("future cannot become synchronous", func(t *testing.T) {
		_, err := h.PostProcess(future.Completed(testRecords[0]), typeOf[*invoiceView](), cc)
		requireCode(t, err, resultconv.CodeResultNotConvertible)
	})
}

func TestConvertible(t *testing.T) {
	h := resultconv.NewHandler(nil)

	cases := []struct {
		name string
		from reflect.Type
		to   reflect.Type
		want bool
	}{
		{"identical", typeOf[[]invoiceRecord](), typeOf[[]invoiceRecord](), true},
		{"projected slices", typeOf[[]invoiceRecord](), typeOf[[]invoiceView](), true},
		{"plain into pointer", typeOf[invoiceRecord](), typeOf[*invoiceView](), true},
		{"stream into seq", typeOf[*streams.Stream[invoiceRecord]](), typeOf[iter.Seq[invoiceView]](), true},
		{"future into future", typeOf[*future.Future[invoiceRecord]](), typeOf[*future.Future[invoiceView]](), true},
		{"future into sync", typeOf[*future.Future[invoiceRecord]](), typeOf[*invoiceView](), false},
		{"slice into map", typeOf[[]invoiceRecord](), typeOf[map[string]invoiceRecord](), false},
		{"scalar coercion", typeOf[int64](), typeOf[string](), true},
		{"string into func", typeOf[string](), typeOf[func()](), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.Convertible(tc.from, tc.to))
		})
	}
}
