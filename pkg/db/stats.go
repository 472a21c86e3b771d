package db

import (
	"sort"
	"time"
)

// Stats are the aggregate numbers on the admin statistics page.
type Stats struct {
	Total    int
	ByStatus map[Status]int
	Overdue  int
	DueSoon  int
	// ByResponsible counts each collaborator's tasks per status. A task with several
	// collaborators counts once for each of them.
	ByResponsible map[string]map[Status]int
	ByPriority    map[Priority]int
}

// Responsibles returns the keys of ByResponsible in sorted order.
func (s *Stats) Responsibles() []string {
	names := make([]string, 0, len(s.ByResponsible))
	for n := range s.ByResponsible {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// ComputeStats aggregates the board. A task is overdue when its due date is before today and
// due soon when it falls between today and three days from now; done tasks are neither.
func ComputeStats(board *Board, today time.Time) *Stats {
	s := &Stats{
		ByStatus:      map[Status]int{},
		ByResponsible: map[string]map[Status]int{},
		ByPriority:    map[Priority]int{},
	}

	for _, st := range Statuses() {
		s.ByStatus[st] = 0
	}

	day := dayOf(today)
	soon := day.AddDate(0, 0, dueSoonDays)

	for _, t := range board.Tasks {
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++

		if t.Status != StatusDone && t.DueDate != nil {
			due := dayOf(*t.DueDate)

			switch {
			case due.Before(day):
				s.Overdue++
			case !due.After(soon):
				s.DueSoon++
			}
		}

		for _, c := range t.Collaborators {
			if c == "" {
				continue
			}

			if s.ByResponsible[c] == nil {
				s.ByResponsible[c] = map[Status]int{}
			}

			s.ByResponsible[c][t.Status]++
		}
	}

	return s
}
