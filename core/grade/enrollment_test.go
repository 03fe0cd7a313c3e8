package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipDeltas(t *testing.T) {
	tests := []struct {
		name           string
		newMembers     []string
		currentHolders []string
		wantAdd        []string
		wantRemove     []string
	}{
		{
			name:           "replacement",
			newMembers:     []string{"b", "c"},
			currentHolders: []string{"a", "b"},
			wantAdd:        []string{"c"},
			wantRemove:     []string{"a"},
		},
		{
			name:           "clear all",
			newMembers:     []string{},
			currentHolders: []string{"a", "b"},
			wantRemove:     []string{"a", "b"},
		},
		{
			name:       "first assignment",
			newMembers: []string{"a", "b"},
			wantAdd:    []string{"a", "b"},
		},
		{
			name:           "no change",
			newMembers:     []string{"a", "b"},
			currentHolders: []string{"b", "a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := MembershipDeltas(tt.newMembers, tt.currentHolders)
			assert.ElementsMatch(t, tt.wantAdd, d.Add)
			assert.ElementsMatch(t, tt.wantRemove, d.Remove)
		})
	}
}

func TestDeltas_IsEmpty(t *testing.T) {
	if !MembershipDeltas([]string{"a"}, []string{"a"}).IsEmpty() {
		t.Error("IsEmpty() = false, want true")
	}
	if MembershipDeltas([]string{"a"}, nil).IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}
}
