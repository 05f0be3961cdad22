package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ajo/internal/core"
)

// AddMember appends a member at the end of the rotation.
func AddMember(g *core.Group, name, contact string) (core.Member, error) {
	m := core.Member{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(name),
		Contact: strings.TrimSpace(contact),
		Order:   len(g.Members) + 1,
	}
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	g.Members = append(g.Members, m)
	return m, nil
}

// RemoveMember drops a member and closes the gap in the rotation order.
// The member's payment records stay in the ledger as history.
func RemoveMember(g *core.Group, memberID string) error {
	idx := memberIndex(g, memberID)
	if idx < 0 {
		return &core.NotFoundError{Kind: "member", ID: memberID}
	}
	g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
	g.Members = MembersInOrder(g)
	renumber(g.Members)
	return nil
}

// Reorder moves a member to newOrder and shifts the others to keep 1..N.
func Reorder(g *core.Group, memberID string, newOrder int) error {
	if memberIndex(g, memberID) < 0 {
		return &core.NotFoundError{Kind: "member", ID: memberID}
	}
	n := len(g.Members)
	if newOrder < 1 || newOrder > n {
		return core.FieldError("order", fmt.Sprintf("Order must be between 1 and %d", n))
	}

	ordered := MembersInOrder(g)
	var moved core.Member
	rest := make([]core.Member, 0, n-1)
	for _, m := range ordered {
		if m.ID == memberID {
			moved = m
			continue
		}
		rest = append(rest, m)
	}
	out := make([]core.Member, 0, n)
	out = append(out, rest[:newOrder-1]...)
	out = append(out, moved)
	out = append(out, rest[newOrder-1:]...)
	renumber(out)
	g.Members = out
	return nil
}

// MemberByID looks up a current member.
func MemberByID(g *core.Group, memberID string) (core.Member, bool) {
	if i := memberIndex(g, memberID); i >= 0 {
		return g.Members[i], true
	}
	return core.Member{}, false
}

// MembersInOrder returns a copy of the members sorted by rotation order.
func MembersInOrder(g *core.Group) []core.Member {
	out := append([]core.Member(nil), g.Members...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// PayoutRecipient is the member who collects the pot in the given cycle:
// order ((cycle-1) mod N) + 1.
func PayoutRecipient(g *core.Group, cycle int) (core.Member, error) {
	if len(g.Members) == 0 {
		return core.Member{}, core.FieldError("members", "Group has no members")
	}
	if cycle < 1 || cycle > g.TotalCycles {
		return core.Member{}, core.FieldError("cycle",
			fmt.Sprintf("Cycle must be between 1 and %d", g.TotalCycles))
	}
	want := (cycle-1)%len(g.Members) + 1
	for _, m := range g.Members {
		if m.Order == want {
			return m, nil
		}
	}
	return core.Member{}, &core.NotFoundError{Kind: "member order", ID: fmt.Sprint(want)}
}

func memberIndex(g *core.Group, memberID string) int {
	for i, m := range g.Members {
		if m.ID == memberID {
			return i
		}
	}
	return -1
}

// renumber rewrites Order as 1..N following slice position.
func renumber(members []core.Member) {
	for i := range members {
		members[i].Order = i + 1
	}
}
