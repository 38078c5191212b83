package core

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"wasteportal/pkg/domain"
)

// WeekdayOrder is the Monday-first week used to order schedules.
var WeekdayOrder = [...]string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}

// Owned is implemented by records belonging to a user.
type Owned interface{ OwnerID() int64 }

// Statused is implemented by records carrying a status label.
type Statused interface{ StatusLabel() string }

// Regional is implemented by records tied to a region.
type Regional interface{ RegionLabel() string }

// Weighted is implemented by records carrying a weight in kilograms.
type Weighted interface{ Weight() float64 }

// Scheduled is implemented by records falling on a weekday.
type Scheduled interface{ WeekdayName() string }

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// FilterByOwner keeps the records of user id, preserving order.
func FilterByOwner[T Owned](items []T, id int64) []T {
	return filter(items, func(it T) bool { return it.OwnerID() == id })
}

// FilterByStatus keeps the records whose status equals status.
func FilterByStatus[T Statused](items []T, status string) []T {
	return filter(items, func(it T) bool { return it.StatusLabel() == status })
}

// FilterByRegion keeps the records whose region equals region exactly.
func FilterByRegion[T Regional](items []T, region string) []T {
	return filter(items, func(it T) bool { return it.RegionLabel() == region })
}

// SumWeight totals the weights of items; 0 for none. Weights are summed in
// ascending order so the result does not depend on input order.
func SumWeight[T Weighted](items []T) float64 {
	weights := make([]float64, len(items))
	for i, it := range items {
		weights[i] = it.Weight()
	}
	sort.Float64s(weights)
	var total float64
	for _, w := range weights {
		total += w
	}
	return total
}

// RoundTenth rounds v to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// WeekdayIndex returns the position of day in order, or in WeekdayOrder
// when order is nil. Unknown names map past the end so they sort last.
func WeekdayIndex(order []string, day string) int {
	if order == nil {
		order = WeekdayOrder[:]
	}
	for i, d := range order {
		if d == day {
			return i
		}
	}
	return len(order)
}

// SortByWeekday returns a copy of items stably ordered by their position
// in order; a nil order means WeekdayOrder.
func SortByWeekday[T Scheduled](items []T, order []string) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return WeekdayIndex(order, out[i].WeekdayName()) < WeekdayIndex(order, out[j].WeekdayName())
	})
	return out
}

// SortSchedulesByRegion returns a copy of schedules ordered by region under
// Indonesian collation, then by weekday.
func SortSchedulesByRegion(schedules []domain.Schedule) []domain.Schedule {
	col := collate.New(language.Indonesian)
	out := append([]domain.Schedule(nil), schedules...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Region, out[j].Region); c != 0 {
			return c < 0
		}
		return WeekdayIndex(WeekdayOrder[:], out[i].Day) < WeekdayIndex(WeekdayOrder[:], out[j].Day)
	})
	return out
}

// RegionGroup is one region and its records.
type RegionGroup[T any] struct {
	Region string `json:"wilayah"`
	Items  []T    `json:"items"`
}

// GroupByRegion groups items by region. Groups appear in order of first
// occurrence and keep item order.
func GroupByRegion[T Regional](items []T) []RegionGroup[T] {
	var groups []RegionGroup[T]
	index := make(map[string]int)
	for _, it := range items {
		r := it.RegionLabel()
		i, ok := index[r]
		if !ok {
			i = len(groups)
			index[r] = i
			groups = append(groups, RegionGroup[T]{Region: r})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	return append(make([]T, 0, len(items)), items...)
}
