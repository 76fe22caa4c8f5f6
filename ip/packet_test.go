package ip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPacketOwnership(t *testing.T) {
	p := New("Source", "hello")
	assert.Equal(t, "hello", p.Contents())
	assert.Equal(t, Normal, p.Role())
	assert.Equal(t, "Source", p.Owner())
	assert.Equal(t, "Source", p.Creator())

	p.ClearOwner()
	assert.Equal(t, "", p.Owner())

	p.SetOwner("LineToWords")
	assert.Equal(t, "LineToWords", p.Owner())
}

func TestBracketPacketsCarryNoPayload(t *testing.T) {
	open := NewBracket("Splitter", OpenBracket, "group-1")
	assert.Nil(t, open.Contents())
	assert.Equal(t, "group-1", open.Label())
	assert.Equal(t, OpenBracket, open.Role())

	close := NewBracket("Splitter", CloseBracket, "group-1")
	assert.Equal(t, CloseBracket, close.Role())
}

func TestCloneIsIndependent(t *testing.T) {
	type payload struct{ N int }
	original := New("A", &payload{N: 1})

	clone := original.Clone("B", func(v any) any {
		src := v.(*payload)
		return &payload{N: src.N}
	})

	clone.Contents().(*payload).N = 2
	assert.Equal(t, 1, original.Contents().(*payload).N)
	assert.Equal(t, 2, clone.Contents().(*payload).N)
	assert.NotEqual(t, original.ID(), clone.ID())
}

func TestPacketIDsAreUnique(t *testing.T) {
	a := New("A", 1)
	b := New("A", 2)
	assert.NotEqual(t, a.ID(), b.ID())
}
