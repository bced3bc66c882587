package projects

import (
	"sort"

	"github.com/shopspring/decimal"
)

const topProjects = 5

// Period selects projects by the year and optional month of their start date.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Dashboard is the read-only cost report for a period.
type Dashboard struct {
	Period          Period          `json:"period"`
	Totals          Totals          `json:"totals"`
	OtherByCategory []CategoryTotal `json:"other_by_category"`
	StatusCounts    map[Status]int  `json:"status_counts"`
	Top             []Summary       `json:"top5"`
	Projects        []Summary       `json:"projects"`
}

// Aggregate builds the dashboard from projects already filtered to period.
// Sub-ledgers must be loaded.
func Aggregate(period Period, list []Project) Dashboard {
	d := Dashboard{
		Period:          period,
		OtherByCategory: []CategoryTotal{},
		StatusCounts:    map[Status]int{},
		Projects:        make([]Summary, 0, len(list)),
	}

	byCategory := map[string]decimal.Decimal{}
	for i := range list {
		p := &list[i]
		s := summarize(p)
		d.Projects = append(d.Projects, s)
		d.Totals = d.Totals.Add(s.Totals)
		d.StatusCounts[p.Status]++
		for _, e := range p.Expenses {
			byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
		}
	}

	for cat, total := range byCategory {
		d.OtherByCategory = append(d.OtherByCategory, CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(d.OtherByCategory, func(i, j int) bool {
		a, b := d.OtherByCategory[i], d.OtherByCategory[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})

	sort.SliceStable(d.Projects, func(i, j int) bool {
		a, b := d.Projects[i], d.Projects[j]
		if c := a.Totals.Grand.Cmp(b.Totals.Grand); c != 0 {
			return c > 0
		}
		return a.Code < b.Code
	})
	n := len(d.Projects)
	if n > topProjects {
		n = topProjects
	}
	d.Top = append([]Summary{}, d.Projects[:n]...)
	return d
}
