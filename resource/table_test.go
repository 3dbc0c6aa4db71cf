package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	sperrors "github.com/wippyai/sharedptr/errors"
	"github.com/wippyai/sharedptr/shared"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type stream struct {
	name  string
	drops *int
}

func (s *stream) Drop() { *s.drops++ }

func newStream(name string) (*shared.Handle[*stream], *int) {
	drops := new(int)
	return shared.Make(&stream{name: name, drops: drops}), drops
}

func TestTable_Basic(t *testing.T) {
	table := NewTable[*stream]()
	owner, drops := newStream("stdin")

	h, err := table.Insert(WASIInputStream, owner)
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, 2, owner.UseCount())
	assert.Equal(t, 2, table.UseCount(h))

	v, ok := table.Get(h)
	require.True(t, ok)
	assert.Same(t, owner.Get(), v)

	_, ok = table.GetTyped(h, WASIInputStream)
	assert.True(t, ok)
	_, ok = table.GetTyped(h, WASIOutputStream)
	assert.False(t, ok)

	require.NoError(t, table.Remove(h))
	assert.Equal(t, 1, owner.UseCount())
	assert.Equal(t, 0, *drops)
	assert.Equal(t, 0, table.Len())

	_, ok = table.Get(h)
	assert.False(t, ok)

	owner.Release()
	assert.Equal(t, 1, *drops)
}

func TestTable_LastOwnerIsTable(t *testing.T) {
	table := NewTable[*stream]()
	owner, drops := newStream("stdout")

	h, err := table.Insert(WASIOutputStream, owner)
	require.NoError(t, err)

	owner.Release()
	assert.Equal(t, 0, *drops)
	assert.Equal(t, 1, table.UseCount(h))

	v, ok := table.Get(h)
	require.True(t, ok)
	assert.Equal(t, "stdout", v.name)

	require.NoError(t, table.Remove(h))
	assert.Equal(t, 1, *drops)
}

func TestTable_Acquire(t *testing.T) {
	table := NewTable[*stream]()
	owner, drops := newStream("file")
	h, _ := table.Insert(WASIDescriptor, owner)
	owner.Release()

	ref, ok := table.Acquire(h)
	require.True(t, ok)
	assert.Equal(t, 2, ref.UseCount())

	require.NoError(t, table.Remove(h))
	assert.Equal(t, 0, *drops)
	assert.Equal(t, 1, ref.UseCount())

	ref.Release()
	assert.Equal(t, 1, *drops)

	_, ok = table.Acquire(h)
	assert.False(t, ok)
}

func TestTable_InsertErrors(t *testing.T) {
	table := NewTable[*stream]()
	owner, _ := newStream("x")
	defer owner.Release()

	recordName := "point"
	record := &wit.TypeDef{Name: &recordName, Kind: &wit.Record{}}

	tests := []struct {
		name  string
		def   *wit.TypeDef
		owner *shared.Handle[*stream]
		kind  sperrors.Kind
	}{
		{name: "nil type", def: nil, owner: owner, kind: sperrors.KindInvalidInput},
		{name: "not a resource", def: record, owner: owner, kind: sperrors.KindTypeMismatch},
		{name: "empty owner", def: WASIPollable, owner: &shared.Handle[*stream]{}, kind: sperrors.KindInvalidInput},
		{name: "nil owner", def: WASIPollable, owner: nil, kind: sperrors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := table.Insert(tt.def, tt.owner)
			assert.Zero(t, h)
			assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseTable, Kind: tt.kind}), "got %v", err)
		})
	}

	assert.Equal(t, 1, owner.UseCount())
	assert.Equal(t, 0, table.Len())
}

func TestTable_RemoveErrors(t *testing.T) {
	table := NewTable[*stream]()
	owner, drops := newStream("sock")
	h, _ := table.Insert(WASITCPSocket, owner)
	owner.Release()

	err := table.Remove(h + 1)
	assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseTable, Kind: sperrors.KindNotFound}))

	require.True(t, table.Borrow(h))
	err = table.Remove(h)
	assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseTable, Kind: sperrors.KindBorrowed}))
	assert.Equal(t, 0, *drops)

	require.True(t, table.ReturnBorrow(h))
	require.NoError(t, table.Remove(h))
	assert.Equal(t, 1, *drops)
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[*stream]()
	obs := &testObserver{}
	table.Subscribe(obs)

	owner, _ := newStream("events")
	h, _ := table.Insert(WASIPollable, owner)
	require.Len(t, obs.events, 1)
	assert.Equal(t, Event{Type: EventCreated, Handle: h, TypeName: "pollable", UseCount: 2}, obs.events[0])

	table.Borrow(h)
	table.ReturnBorrow(h)
	require.Len(t, obs.events, 3)
	assert.Equal(t, EventBorrowed, obs.events[1].Type)
	assert.Equal(t, EventBorrowReturned, obs.events[2].Type)

	table.Remove(h)
	require.Len(t, obs.events, 4)
	assert.Equal(t, Event{Type: EventDropped, Handle: h, TypeName: "pollable", UseCount: 1}, obs.events[3])

	table.Unsubscribe(obs)
	h, _ = table.Insert(WASIPollable, owner)
	owner.Release()
	table.Remove(h)
	assert.Len(t, obs.events, 4)
}

func TestTable_DroppedEventReportsDestruction(t *testing.T) {
	table := NewTable[*stream]()
	obs := &testObserver{}
	table.Subscribe(obs)

	owner, drops := newStream("last")
	h, _ := table.Insert(WASIPollable, owner)
	owner.Release()

	table.Remove(h)
	last := obs.events[len(obs.events)-1]
	assert.Equal(t, EventDropped, last.Type)
	assert.Equal(t, 0, last.UseCount)
	assert.Equal(t, 1, *drops)
}

func TestTable_Clear(t *testing.T) {
	table := NewTable[*stream]()

	var all []*int
	for _, name := range []string{"a", "b", "c"} {
		owner, drops := newStream(name)
		table.Insert(WASIPollable, owner)
		owner.Release()
		all = append(all, drops)
	}

	table.Borrow(2)
	table.Clear()

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, *all[0])
	assert.Equal(t, 0, *all[1])
	assert.Equal(t, 1, *all[2])

	var names []string
	table.Each(func(h Handle, s *stream) bool {
		names = append(names, s.name)
		return true
	})
	assert.Equal(t, []string{"b"}, names)
}

func TestTable_Close(t *testing.T) {
	table := NewTable[*stream]()
	owner, drops := newStream("held")
	defer owner.Release()

	h1, _ := table.Insert(WASIPollable, owner)
	h2, _ := table.Insert(WASIPollable, owner)
	table.Borrow(h2)
	assert.Equal(t, 3, owner.UseCount())

	require.NoError(t, table.Close())
	assert.Equal(t, 1, owner.UseCount())
	assert.Equal(t, 0, *drops)
	assert.Equal(t, 0, table.Len())

	_, ok := table.Get(h1)
	assert.False(t, ok)

	_, err := table.Insert(WASIPollable, owner)
	assert.True(t, errors.Is(err, &sperrors.Error{Phase: sperrors.PhaseTable, Kind: sperrors.KindClosed}))

	require.NoError(t, table.Close())
}

func TestTable_ValueDropRemovesSibling(t *testing.T) {
	table := NewTable[*parent]()

	child := shared.Make(&parent{})
	ch, _ := table.Insert(WASIPollable, child)
	child.Release()

	p := shared.Make(&parent{table: table, child: ch})
	ph, _ := table.Insert(WASIDescriptor, p)
	p.Release()

	require.NoError(t, table.Remove(ph))
	assert.Equal(t, 0, table.Len())
}

// parent removes its child slot when destroyed.
type parent struct {
	table *Table[*parent]
	child Handle
}

func (p *parent) Drop() {
	if p.table != nil {
		p.table.Remove(p.child)
	}
}

func TestNewResourceType(t *testing.T) {
	def := NewResourceType("blob")
	assert.Equal(t, "blob", TypeName(def))
	assert.NoError(t, checkResourceType(def))
	assert.Equal(t, "", TypeName(nil))
	assert.NotSame(t, NewResourceType("blob"), def)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "created", EventCreated.String())
	assert.Equal(t, "dropped", EventDropped.String())
	assert.Equal(t, "borrowed", EventBorrowed.String())
	assert.Equal(t, "borrow-returned", EventBorrowReturned.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
