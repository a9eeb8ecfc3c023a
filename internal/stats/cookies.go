package stats

import (
	"net/http"
	"sort"
	"time"
)

// ValueStat describes one observed value of a cookie name.
type ValueStat struct {
	// Value is the cookie value as received from the server.
	Value string

	// Count is the number of polls that observed this value.
	Count int

	// Share is Count as a percentage of all observations for this
	// cookie name within the same scope.
	Share float64

	// LastSeen is the most recent observation timestamp.
	LastSeen time.Time
}

// valueHist holds the observation timestamps for one (name, value) pair.
// Timestamps are appended in observation order and never removed.
type valueHist struct {
	stamps []time.Time
}

// nameHist holds all observed values of one cookie name.
// The values slice preserves first-observation order.
type nameHist struct {
	values  []string
	byValue map[string]*valueHist
	total   int
}

// scope is one of the two independent histograms (session-less or
// session-affine). Names preserve first-observation order.
type scope struct {
	names  []string
	byName map[string]*nameHist
}

func newScope() *scope {
	return &scope{byName: make(map[string]*nameHist)}
}

func (s *scope) record(name, value string, at time.Time) {
	nh, ok := s.byName[name]
	if !ok {
		nh = &nameHist{byValue: make(map[string]*valueHist)}
		s.byName[name] = nh
		s.names = append(s.names, name)
	}

	vh, ok := nh.byValue[value]
	if !ok {
		vh = &valueHist{}
		nh.byValue[value] = vh
		nh.values = append(nh.values, value)
	}

	vh.stamps = append(vh.stamps, at)
	nh.total++
}

// CookieTracker keeps two independent cookie histograms, one for
// session-less polls and one for session-affine polls. Buckets are
// created lazily on first observation and are append-only.
//
// CookieTracker is not safe for concurrent use on its own; it is guarded
// by the owning [Tracker].
type CookieTracker struct {
	plain   *scope
	session *scope
}

// NewCookieTracker creates an empty [CookieTracker].
func NewCookieTracker() *CookieTracker {
	return &CookieTracker{
		plain:   newScope(),
		session: newScope(),
	}
}

func (c *CookieTracker) scopeFor(sessioned bool) *scope {
	if sessioned {
		return c.session
	}
	return c.plain
}

// Hit records one observation per cookie into the (sessioned, name,
// value) buckets, stamped with at. A nil or empty cookie set is a no-op,
// so misses and suppressed hits never create buckets.
func (c *CookieTracker) Hit(cookies []*http.Cookie, sessioned bool, at time.Time) {
	if len(cookies) == 0 {
		return
	}

	sc := c.scopeFor(sessioned)
	for _, ck := range cookies {
		sc.record(ck.Name, ck.Value, at)
	}
}

// Names returns the cookie names observed in the given scope, in
// first-observation order. The returned slice is a copy.
func (c *CookieTracker) Names(sessioned bool) []string {
	sc := c.scopeFor(sessioned)
	return append([]string(nil), sc.names...)
}

// Values returns the per-value statistics for one cookie name in the
// given scope, in first-observation order. Shares are percentages of the
// name's total observation count and sum to 100 across all values.
// Returns nil for a name that was never observed.
func (c *CookieTracker) Values(sessioned bool, name string) []ValueStat {
	sc := c.scopeFor(sessioned)
	nh, ok := sc.byName[name]
	if !ok {
		return nil
	}

	out := make([]ValueStat, 0, len(nh.values))
	for _, v := range nh.values {
		vh := nh.byValue[v]
		out = append(out, ValueStat{
			Value:    v,
			Count:    len(vh.stamps),
			Share:    100 * float64(len(vh.stamps)) / float64(nh.total),
			LastSeen: vh.stamps[len(vh.stamps)-1],
		})
	}
	return out
}

// Observations returns the observation timestamps for one (sessioned,
// name, value) bucket in insertion order. The returned slice is a copy.
func (c *CookieTracker) Observations(sessioned bool, name, value string) []time.Time {
	sc := c.scopeFor(sessioned)
	nh, ok := sc.byName[name]
	if !ok {
		return nil
	}
	vh, ok := nh.byValue[value]
	if !ok {
		return nil
	}
	return append([]time.Time(nil), vh.stamps...)
}

// mostRecent orders value stats by last observation, newest first.
// Insertion order breaks ties, keeping the output deterministic.
func mostRecent(values []ValueStat) []ValueStat {
	sorted := append([]ValueStat(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastSeen.After(sorted[j].LastSeen)
	})
	return sorted
}
