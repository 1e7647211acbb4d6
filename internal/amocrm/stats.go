package amocrm

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Period is a resolved reporting window in unix seconds.
type Period struct {
	From  int64
	To    int64
	Days  int
	Label string
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// weekday with Monday as 0, like the reporting weeks run.
func mondayBased(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ResolvePeriod turns range/from/to query values into a concrete window.
// Supported ranges: today, this_week, last_week, prev_last_week and custom
// (with unix-second bounds; the upper bound is stretched to end of day).
func ResolvePeriod(rng, fromStr, toStr string, now time.Time) Period {
	rng = strings.ToLower(strings.TrimSpace(rng))

	if rng == "custom" && fromStr != "" && toStr != "" {
		tsFrom, errFrom := strconv.ParseInt(fromStr, 10, 64)
		tsTo, errTo := strconv.ParseInt(toStr, 10, 64)
		if errFrom == nil && errTo == nil {
			tsTo = endOfDay(time.Unix(tsTo, 0).In(now.Location())).Unix()
			days := int((tsTo - tsFrom) / 86400)
			if days < 0 {
				days = 0
			}
			return Period{From: tsFrom, To: tsTo, Days: days, Label: "custom"}
		}
	}

	switch rng {
	case "today":
		return Period{From: startOfDay(now).Unix(), To: now.Unix(), Days: 0, Label: "today"}

	case "last_week":
		end := endOfDay(now.AddDate(0, 0, -(mondayBased(now) + 1)))
		start := startOfDay(end.AddDate(0, 0, -6))
		return Period{From: start.Unix(), To: end.Unix(), Days: 7, Label: "last_week"}

	case "prev_last_week":
		end := endOfDay(now.AddDate(0, 0, -(mondayBased(now) + 8)))
		start := startOfDay(end.AddDate(0, 0, -6))
		return Period{From: start.Unix(), To: end.Unix(), Days: 7, Label: "prev_last_week"}
	}

	// this_week is also the fallback
	start := startOfDay(now.AddDate(0, 0, -mondayBased(now)))
	return Period{From: start.Unix(), To: now.Unix(), Days: 7, Label: "this_week"}
}

// UserRow is one responsible user's aggregated lead outcomes.
type UserRow struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Created     int    `json:"created"`
	Won         int    `json:"won"`
	Lost        int    `json:"lost"`
	Conv        int    `json:"conv"`
}

// Summary is the company-wide aggregation for one period.
type Summary struct {
	CreatedCount      int       `json:"created_count"`
	WonCount          int       `json:"won_count"`
	LostCount         int       `json:"lost_count"`
	OverallConversion int       `json:"overall_conversion"`
	Rows              []UserRow `json:"rows"`
}

func roundPct(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(float64(num)/float64(den)*100 + 0.5)
}

// ComputeStats aggregates created and closed leads per responsible user.
func ComputeStats(ctx context.Context, c *Client, tsFrom, tsTo int64) (Summary, error) {
	usersMap, err := c.FetchUsers(ctx)
	if err != nil {
		return Summary{}, err
	}

	type tally struct{ created, won, lost int }
	byUser := make(map[int64]*tally)
	get := func(id int64) *tally {
		t, ok := byUser[id]
		if !ok {
			t = &tally{}
			byUser[id] = t
		}
		return t
	}

	if err := c.EachCreatedLead(ctx, tsFrom, tsTo, func(lead Lead) {
		get(lead.ResponsibleUserID).created++
	}); err != nil {
		return Summary{}, err
	}

	if err := c.EachClosedLead(ctx, tsFrom, tsTo, func(lead Lead) {
		switch lead.StatusID {
		case WonStatusID:
			get(lead.ResponsibleUserID).won++
		case LostStatusID:
			get(lead.ResponsibleUserID).lost++
		}
	}); err != nil {
		return Summary{}, err
	}

	var summary Summary
	for uid, t := range byUser {
		name := "Unassigned"
		if uid != 0 {
			if u, ok := usersMap[uid]; ok {
				name = u.Name
			}
		}
		summary.Rows = append(summary.Rows, UserRow{
			UserID:      uid,
			DisplayName: name,
			Created:     t.created,
			Won:         t.won,
			Lost:        t.lost,
			Conv:        roundPct(t.won, t.created),
		})
		summary.CreatedCount += t.created
		summary.WonCount += t.won
		summary.LostCount += t.lost
	}
	summary.OverallConversion = roundPct(summary.WonCount, summary.CreatedCount)

	return summary, nil
}

// ApplyViewFilters narrows and orders rows for export views. Sorts:
// won_desc (default), conv_desc, lost_asc, name_asc.
func ApplyViewFilters(rows []UserRow, sortKey string, minTotal int, q string) []UserRow {
	if q != "" {
		ql := strings.ToLower(q)
		filtered := rows[:0:0]
		for _, r := range rows {
			if strings.Contains(strings.ToLower(r.DisplayName), ql) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if minTotal > 0 {
		filtered := rows[:0:0]
		for _, r := range rows {
			if r.Won+r.Lost >= minTotal {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	switch sortKey {
	case "conv_desc":
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Conv != rows[j].Conv {
				return rows[i].Conv > rows[j].Conv
			}
			return rows[i].Won > rows[j].Won
		})
	case "lost_asc":
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Lost != rows[j].Lost {
				return rows[i].Lost < rows[j].Lost
			}
			return rows[i].Won > rows[j].Won
		})
	case "name_asc":
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].DisplayName < rows[j].DisplayName
		})
	default: // won_desc
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Won != rows[j].Won {
				return rows[i].Won > rows[j].Won
			}
			return rows[i].Lost < rows[j].Lost
		})
	}
	return rows
}
