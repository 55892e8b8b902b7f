package internal

import (
	"sort"
	"strconv"
	"strings"
)

// Position keywords understood by SortByPosition
const (
	PositionStart  = "start"
	PositionEnd    = "end"
	PositionBefore = "before"
	PositionAfter  = "after"
)

type positionedKey struct {
	key    string
	index  int
	weight float64
	target string
}

// SortByPosition orders keys by their position expression.
//
// Keys positioned "start [weight]" come first (higher weight first), then
// numeric positions ascending, then unpositioned keys in declaration order,
// then "end [weight]" keys (lower weight first). "before key" and
// "after key" place a key next to another one; keys whose reference is
// missing are appended to the middle section.
func SortByPosition(keys []string, position func(key string) string) []string {
	var starts, numeric, middle, ends []positionedKey
	var before, after []positionedKey
	present := make(map[string]bool, len(keys))
	for _, key := range keys {
		present[key] = true
	}

	for i, key := range keys {
		entry := positionedKey{key: key, index: i}
		fields := strings.Fields(strings.TrimSpace(position(key)))
		if len(fields) == 0 {
			middle = append(middle, entry)
			continue
		}
		switch fields[0] {
		case PositionStart:
			entry.weight = positionWeight(fields)
			starts = append(starts, entry)
		case PositionEnd:
			entry.weight = positionWeight(fields)
			ends = append(ends, entry)
		case PositionBefore, PositionAfter:
			if len(fields) < 2 || !present[fields[1]] || fields[1] == key {
				middle = append(middle, entry)
				continue
			}
			entry.target = fields[1]
			if fields[0] == PositionBefore {
				before = append(before, entry)
			} else {
				after = append(after, entry)
			}
		default:
			number, err := strconv.ParseFloat(fields[0], FloatBitSize64)
			if err != nil {
				middle = append(middle, entry)
				continue
			}
			entry.weight = number
			numeric = append(numeric, entry)
		}
	}

	sort.SliceStable(starts, func(i, j int) bool { return starts[i].weight > starts[j].weight })
	sort.SliceStable(numeric, func(i, j int) bool { return numeric[i].weight < numeric[j].weight })
	sort.SliceStable(ends, func(i, j int) bool { return ends[i].weight < ends[j].weight })

	anchored := make([]positionedKey, 0, len(keys))
	anchored = append(anchored, starts...)
	anchored = append(anchored, numeric...)
	anchored = append(anchored, middle...)
	anchored = append(anchored, ends...)

	beforeOf := groupRelative(before)
	afterOf := groupRelative(after)

	result := make([]string, 0, len(keys))
	placed := make(map[string]bool, len(keys))
	var place func(key string)
	place = func(key string) {
		if placed[key] {
			return
		}
		placed[key] = true
		for _, entry := range beforeOf[key] {
			place(entry.key)
		}
		result = append(result, key)
		for _, entry := range afterOf[key] {
			place(entry.key)
		}
	}

	for _, entry := range anchored {
		place(entry.key)
	}
	// keys only reachable through a reference cycle
	for _, key := range keys {
		if !placed[key] {
			place(key)
		}
	}
	return result
}

func groupRelative(entries []positionedKey) map[string][]positionedKey {
	grouped := make(map[string][]positionedKey)
	for _, entry := range entries {
		grouped[entry.target] = append(grouped[entry.target], entry)
	}
	for target := range grouped {
		group := grouped[target]
		sort.SliceStable(group, func(i, j int) bool { return group[i].index < group[j].index })
	}
	return grouped
}

func positionWeight(fields []string) float64 {
	if len(fields) < 2 {
		return 0
	}
	weight, err := strconv.ParseFloat(fields[1], FloatBitSize64)
	if err != nil {
		return 0
	}
	return weight
}
