package pool_test

import (
	"bytes"
	"fmt"

	"github.com/DangerosoDavo/pool"
	"github.com/DangerosoDavo/pool/pool/visit"
)

type node struct {
	name   string
	parent pool.Handle[node]
}

func Example() {
	nodes := pool.New[node]()

	root := nodes.Spawn(node{name: "root"})
	child := nodes.Spawn(node{name: "child", parent: root})

	if c, ok := nodes.Get(child); ok {
		p, _ := nodes.Value(c.parent)
		fmt.Println(c.name, "->", p.name)
	}

	nodes.Free(root)
	_, ok := nodes.Get(root)
	fmt.Println("root valid:", ok)

	reused := nodes.Spawn(node{name: "other"})
	fmt.Println(root, reused)
	// Output:
	// child -> root
	// root valid: false
	// Handle(0:1) Handle(0:2)
}

func ExamplePool_Reserve() {
	nodes := pool.New[node]()
	parent := nodes.Spawn(node{name: "parent"})

	ticket, h := nodes.Reserve()
	defer ticket.Cancel()

	// The handle exists before the object does.
	fmt.Println(h, nodes.IsValidHandle(h))

	if _, err := nodes.PutReserved(ticket, node{name: "child", parent: parent}); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(nodes.IsValidHandle(h))
	// Output:
	// Handle(1:1) false
	// true
}

func ExamplePool_Save() {
	codec := visit.PayloadFunc[string](func(v *visit.Visitor, s *string) { v.String(s) })

	src := pool.New[string]()
	a := src.Spawn("a")
	src.Spawn("b")
	src.Free(a)

	var buf bytes.Buffer
	if err := src.Save(&buf, codec, visit.WithCompression(visit.CompressionZstd)); err != nil {
		fmt.Println(err)
		return
	}

	dst := pool.New[string]()
	if err := dst.Load(&buf, codec); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(dst.Len(), dst.Spawn("c"))
	// Output:
	// 1 Handle(0:2)
}
