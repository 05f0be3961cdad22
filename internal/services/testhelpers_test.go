package services

import (
	"fmt"

	"ajo/internal/core"
)

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func dp(y, m, day int) *core.Date {
	v := core.NewDate(y, m, day)
	return &v
}

// newTestGroup builds a valid weekly group with n members m1..mn starting 2024-01-01.
func newTestGroup(n int) *core.Group {
	g := &core.Group{
		ID:                 "g1",
		Name:               "Lagos Market Traders",
		ContributionAmount: core.Money{Minor: 50000},
		Frequency:          core.Weekly,
		StartDate:          d(2024, 1, 1),
		TotalCycles:        4,
		Version:            1,
	}
	for i := 1; i <= n; i++ {
		g.Members = append(g.Members, core.Member{
			ID:      fmt.Sprintf("m%d", i),
			Name:    fmt.Sprintf("Member %d", i),
			Contact: fmt.Sprintf("+234 800 000 000%d", i),
			Order:   i,
		})
	}
	return g
}
