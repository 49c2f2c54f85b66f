// Package report mines the worker's daily operational log into a
// structured report: per-category event counts plus a ranking of the
// most active source IPs. Classification is a fixed, ordered table of
// substring rules applied line by line; the log format is free text, so
// this deliberately stays pattern matching rather than parsing.
package report

// DailyReport is the aggregate for one calendar day.
type DailyReport struct {
	Day    string
	Users  UserStats
	Posts  PostStats
	Chat   ChatStats
	System SystemStats
	TopIPs []IPCount
}

// UserStats counts account activity events.
type UserStats struct {
	Logins        int
	FailedLogins  int
	Registrations int
}

// PostStats counts post lifecycle events.
type PostStats struct {
	Created   int
	Scheduled int
	Cancelled int
	Retried   int
	Failed    int
	Sent      int
}

// ChatStats counts AI chat events.
type ChatStats struct {
	SessionsCreated int
	MessagesSent    int
	AIErrors        int
}

// SystemStats counts error and warning lines not attributable to the
// report job itself or to driver internals.
type SystemStats struct {
	Errors   int
	Warnings int
}

// IPCount is one entry of the top-IP ranking.
type IPCount struct {
	IP    string
	Count int
}

// ipTally accumulates per-IP counts while remembering first-seen order,
// which breaks ties in the final ranking.
type ipTally struct {
	counts map[string]int
	order  []string
}

func newIPTally() *ipTally {
	return &ipTally{counts: make(map[string]int)}
}

func (t *ipTally) add(ip string) {
	if _, seen := t.counts[ip]; !seen {
		t.order = append(t.order, ip)
	}
	t.counts[ip]++
}

// top returns up to n IPs ranked by count descending; equal counts keep
// first-seen order.
func (t *ipTally) top(n int) []IPCount {
	ranked := make([]IPCount, 0, len(t.order))
	for _, ip := range t.order {
		ranked = append(ranked, IPCount{IP: ip, Count: t.counts[ip]})
	}
	// Insertion sort is stable over the first-seen order.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Count > ranked[j-1].Count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
