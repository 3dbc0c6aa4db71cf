package main

import (
	"fmt"
	"io"
)

// Base is the view handles are declared over. It has no Drop method, so
// destroying a Derived correctly depends on the handle remembering the
// concrete type.
type Base interface {
	Name() string
}

type base struct {
	out io.Writer
}

func newBase(out io.Writer) base {
	fmt.Fprintln(out, "Base constructor")
	return base{out: out}
}

func (b *base) Drop() {
	fmt.Fprintln(b.out, "Base destructor")
}

// Derived extends base with a label and its own destruction step.
type Derived struct {
	base
	label string
}

func NewDerived(out io.Writer, label string) *Derived {
	d := &Derived{base: newBase(out), label: label}
	fmt.Fprintf(out, "Derived constructor (%s)\n", label)
	return d
}

func (d *Derived) Name() string { return d.label }

func (d *Derived) Drop() {
	fmt.Fprintf(d.out, "Derived destructor (%s)\n", d.label)
	d.base.Drop()
}
