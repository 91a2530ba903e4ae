package wrap

import (
	"reflect"
	"sync"
)

// nativeAdapter handles the container shapes built into the language:
// pointers to structs, slices, maps, channels and iterator functions
// (iter.Seq[E] and iter.Seq2[E, error]).
//
// Maps unwrap to their values but cannot be built from a canonical carrier,
// since element keys are not derivable. Channels carry no error signal, so
// pumping a failing source into a channel ends the channel early.
type nativeAdapter struct{}

func (nativeAdapter) Lookup(t reflect.Type) (Info, bool) {
	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			return Info{Shape: ShapeSingle, Elem: t.Elem()}, true
		}
	case reflect.Slice:
		return Info{Shape: ShapeMany, Elem: t.Elem()}, true
	case reflect.Map:
		return Info{Shape: ShapeMany, Elem: t.Elem(), Key: t.Key()}, true
	case reflect.Chan:
		if t.ChanDir() != reflect.SendDir {
			return Info{Shape: ShapeStream, Elem: t.Elem()}, true
		}
	case reflect.Func:
		if elem, ok := seqElem(t); ok {
			return Info{Shape: ShapeStream, Elem: elem}, true
		}
		if elem, ok := seq2Elem(t); ok {
			return Info{Shape: ShapeStream, Elem: elem}, true
		}
	}
	return Info{}, false
}

func (a nativeAdapter) Empty(t reflect.Type) (reflect.Value, error) {
	info, ok := a.Lookup(t)
	if !ok {
		return reflect.Value{}, unsupported(t)
	}

	switch t.Kind() {
	case reflect.Pointer:
		return reflect.Zero(t), nil
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0), nil
	case reflect.Map:
		return reflect.MakeMap(t), nil
	case reflect.Chan:
		ch := reflect.MakeChan(bidiChan(info.Elem), 0)
		ch.Close()
		return ch.Convert(t), nil
	case reflect.Func:
		return a.Wrap(t, Canon{Kind: CanonSlice, Slice: reflect.MakeSlice(reflect.SliceOf(info.Elem), 0, 0)})
	}
	return reflect.Value{}, unsupported(t)
}

func (a nativeAdapter) Wrap(t reflect.Type, c Canon) (reflect.Value, error) {
	info, ok := a.Lookup(t)
	if !ok {
		return reflect.Value{}, unsupported(t)
	}

	switch t.Kind() {
	case reflect.Pointer:
		if c.Kind != CanonValue || !c.Present {
			return reflect.Zero(t), nil
		}
		if c.Value.Type() == t {
			return c.Value, nil
		}
		out := reflect.New(info.Elem)
		out.Elem().Set(c.Value)
		return out, nil

	case reflect.Slice:
		items, err := canonSlice(c, info.Elem)
		if err != nil {
			return reflect.Value{}, err
		}
		if items.Type() == t {
			return items, nil
		}
		out := reflect.MakeSlice(t, items.Len(), items.Len())
		reflect.Copy(out, items)
		return out, nil

	case reflect.Map:
		return reflect.Value{}, unsupported(t)

	case reflect.Chan:
		return wrapChan(t, info.Elem, c)

	case reflect.Func:
		if _, isSeq2 := seq2Elem(t); isSeq2 {
			return wrapSeq2(t, info.Elem, c)
		}
		return wrapSeq(t, info.Elem, c)
	}
	return reflect.Value{}, unsupported(t)
}

func (nativeAdapter) Unwrap(v reflect.Value, info Info) (Canon, error) {
	t := v.Type()
	switch t.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return Canon{Kind: CanonValue}, nil
		}
		return Canon{Kind: CanonValue, Value: v.Elem(), Present: true}, nil

	case reflect.Slice:
		return Canon{Kind: CanonSlice, Slice: v}, nil

	case reflect.Map:
		out := reflect.MakeSlice(reflect.SliceOf(info.Elem), 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out = reflect.Append(out, iter.Value())
		}
		return Canon{Kind: CanonSlice, Slice: out}, nil

	case reflect.Chan:
		return Canon{Kind: CanonSource, Source: &chanPuller{ch: v}}, nil

	case reflect.Func:
		_, isSeq2 := seq2Elem(t)
		return Canon{Kind: CanonSource, Source: newSeqPuller(v, isSeq2)}, nil
	}
	return Canon{}, unsupported(t)
}

// seqElem reports whether t has the iter.Seq[E] shape func(func(E) bool).
func seqElem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 || t.IsVariadic() {
		return nil, false
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != 1 || yield.NumOut() != 1 {
		return nil, false
	}
	if yield.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	return yield.In(0), true
}

// seq2Elem reports whether t has the iter.Seq2[E, error] shape
// func(func(E, error) bool). Pair sequences with a non-error second type are
// not treated as containers.
func seq2Elem(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 || t.IsVariadic() {
		return nil, false
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.NumIn() != 2 || yield.NumOut() != 1 {
		return nil, false
	}
	if yield.Out(0).Kind() != reflect.Bool || yield.In(1) != errorType {
		return nil, false
	}
	return yield.In(0), true
}

func bidiChan(elem reflect.Type) reflect.Type {
	return reflect.ChanOf(reflect.BothDir, elem)
}

// wrapChan builds a channel of type t fed from the carrier. Materialized
// sources produce a closed, fully buffered channel; lazy sources are pumped
// from a goroutine that stops on source exhaustion or error.
func wrapChan(t, elem reflect.Type, c Canon) (reflect.Value, error) {
	if c.Kind != CanonSource {
		items, err := canonSlice(c, elem)
		if err != nil {
			return reflect.Value{}, err
		}
		ch := reflect.MakeChan(bidiChan(elem), items.Len())
		for i := range items.Len() {
			ch.Send(items.Index(i))
		}
		ch.Close()
		return ch.Convert(t), nil
	}

	ch := reflect.MakeChan(bidiChan(elem), 0)
	go func() {
		defer ch.Close()
		defer c.Source.Close()
		for {
			v, ok, err := c.Source.Pull()
			if err != nil || !ok {
				return
			}
			ch.Send(reflect.ValueOf(v))
		}
	}()
	return ch.Convert(t), nil
}

// wrapSeq builds an iter.Seq-shaped func of type t replaying the carrier.
func wrapSeq(t, elem reflect.Type, c Canon) (reflect.Value, error) {
	if c.Kind != CanonSource {
		items, err := canonSlice(c, elem)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
			yield := in[0]
			for i := range items.Len() {
				if !yield.Call([]reflect.Value{items.Index(i)})[0].Bool() {
					return nil
				}
			}
			return nil
		}), nil
	}

	src := c.Source
	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		yield := in[0]
		defer src.Close()
		for {
			v, ok, err := src.Pull()
			if err != nil || !ok {
				return nil
			}
			if !yield.Call([]reflect.Value{reflect.ValueOf(v)})[0].Bool() {
				return nil
			}
		}
	}), nil
}

// wrapSeq2 builds an iter.Seq2[E, error]-shaped func of type t. Source errors
// are yielded as the second element before the sequence ends.
func wrapSeq2(t, elem reflect.Type, c Canon) (reflect.Value, error) {
	nilErr := reflect.Zero(errorType)

	if c.Kind != CanonSource {
		items, err := canonSlice(c, elem)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
			yield := in[0]
			for i := range items.Len() {
				if !yield.Call([]reflect.Value{items.Index(i), nilErr})[0].Bool() {
					return nil
				}
			}
			return nil
		}), nil
	}

	src := c.Source
	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		yield := in[0]
		defer src.Close()
		for {
			v, ok, err := src.Pull()
			if err != nil {
				yield.Call([]reflect.Value{reflect.Zero(elem), reflect.ValueOf(err)})
				return nil
			}
			if !ok {
				return nil
			}
			if !yield.Call([]reflect.Value{reflect.ValueOf(v), nilErr})[0].Bool() {
				return nil
			}
		}
	}), nil
}

// chanPuller adapts a receive-capable channel to the Puller interface.
// Closing the puller abandons the channel rather than closing it, since the
// producer owns the channel.
type chanPuller struct {
	ch     reflect.Value
	closed bool
}

func (p *chanPuller) Pull() (any, bool, error) {
	if p.closed {
		return nil, false, nil
	}
	v, ok := p.ch.Recv()
	if !ok {
		return nil, false, nil
	}
	return v.Interface(), true, nil
}

func (p *chanPuller) Close() { p.closed = true }

// seqPuller adapts a reflective iterator function to the Puller interface by
// running it in a goroutine and handing elements over a channel.
type seqPuller struct {
	out      chan seqItem
	stop     chan struct{}
	stopOnce sync.Once
	started  bool
	seq      reflect.Value
	withErr  bool
}

type seqItem struct {
	v   any
	err error
}

func newSeqPuller(seq reflect.Value, withErr bool) *seqPuller {
	return &seqPuller{
		out:     make(chan seqItem),
		stop:    make(chan struct{}),
		seq:     seq,
		withErr: withErr,
	}
}

func (p *seqPuller) start() {
	yieldType := p.seq.Type().In(0)
	yield := reflect.MakeFunc(yieldType, func(in []reflect.Value) []reflect.Value {
		item := seqItem{v: in[0].Interface()}
		if p.withErr {
			if e, ok := in[1].Interface().(error); ok && e != nil {
				item = seqItem{err: e}
			}
		}
		select {
		case p.out <- item:
			return []reflect.Value{reflect.ValueOf(item.err == nil)}
		case <-p.stop:
			return []reflect.Value{reflect.ValueOf(false)}
		}
	})

	go func() {
		defer close(p.out)
		p.seq.Call([]reflect.Value{yield})
	}()
}

func (p *seqPuller) Pull() (any, bool, error) {
	if !p.started {
		p.started = true
		p.start()
	}
	select {
	case item, ok := <-p.out:
		if !ok {
			return nil, false, nil
		}
		if item.err != nil {
			return nil, false, item.err
		}
		return item.v, true, nil
	case <-p.stop:
		return nil, false, nil
	}
}

func (p *seqPuller) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
}
