package visit

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// PayloadCodec visits one payload value in either direction.
type PayloadCodec[T any] interface {
	VisitPayload(v *Visitor, p *T)
}

// PayloadFunc adapts a plain function to PayloadCodec.
type PayloadFunc[T any] func(v *Visitor, p *T)

// VisitPayload calls f(v, p).
func (f PayloadFunc[T]) VisitPayload(v *Visitor, p *T) {
	f(v, p)
}

// Visitable is implemented by payloads that know how to visit themselves.
type Visitable interface {
	Visit(v *Visitor)
}

// Self returns a codec for pointer payloads that implement Visitable. When
// reading, a nil payload is allocated before its Visit method runs.
func Self[T any, P interface {
	*T
	Visitable
}]() PayloadCodec[P] {
	return PayloadFunc[P](func(v *Visitor, p *P) {
		if *p == nil {
			*p = P(new(T))
		}
		(*p).Visit(v)
	})
}

type protoCodec[M proto.Message] struct {
	newMessage func() M
}

// Proto returns a codec that stores protobuf messages as length-prefixed
// wire-format bytes. newMessage allocates the message decoded into.
func Proto[M proto.Message](newMessage func() M) PayloadCodec[M] {
	return protoCodec[M]{newMessage: newMessage}
}

func (c protoCodec[M]) VisitPayload(v *Visitor, p *M) {
	if !v.IsReading() {
		data, err := proto.Marshal(*p)
		if err != nil {
			v.Fail(fmt.Errorf("visit: marshal %T: %w", *p, err))
			return
		}
		v.Bytes(&data)
		return
	}
	var data []byte
	v.Bytes(&data)
	if v.Err() != nil {
		return
	}
	msg := c.newMessage()
	if err := proto.Unmarshal(data, msg); err != nil {
		v.Fail(fmt.Errorf("visit: unmarshal %T: %w", msg, err))
		return
	}
	*p = msg
}

type polymorphicCodec[T Visitable] struct{}

// Polymorphic returns a codec for interface-typed payloads. Each value is
// written as its registered type name followed by its own Visit output; on
// read the name selects the constructor from the visitor's Registry.
func Polymorphic[T Visitable]() PayloadCodec[T] {
	return polymorphicCodec[T]{}
}

func (polymorphicCodec[T]) VisitPayload(v *Visitor, p *T) {
	reg := v.Registry()
	if reg == nil {
		v.Fail(fmt.Errorf("%w: visitor has no registry", ErrTypeNotRegistered))
		return
	}
	if !v.IsReading() {
		if any(*p) == nil {
			v.Fail(fmt.Errorf("%w: nil payload", ErrTypeNotRegistered))
			return
		}
		name, err := reg.NameOf(*p)
		if err != nil {
			v.Fail(err)
			return
		}
		v.String(&name)
		(*p).Visit(v)
		return
	}
	var name string
	v.String(&name)
	if v.Err() != nil {
		return
	}
	value, err := reg.New(name)
	if err != nil {
		v.Fail(err)
		return
	}
	typed, ok := value.(T)
	if !ok {
		v.Fail(fmt.Errorf("%w: %s produced %T", ErrTypeMismatch, name, value))
		return
	}
	typed.Visit(v)
	*p = typed
}
