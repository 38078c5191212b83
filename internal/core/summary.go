package core

import "wasteportal/pkg/domain"

// ResidentDashboard is the landing view of a resident.
type ResidentDashboard struct {
	User            domain.User            `json:"user"`
	TotalWasteKg    float64                `json:"totalWaste"`
	WasteEntries    int                    `json:"wasteEntries"`
	TotalReports    int                    `json:"totalReports"`
	PendingReports  int                    `json:"pendingReports"`
	VerifiedReports int                    `json:"verifiedReports"`
	RecentWaste     []domain.WasteLogEntry `json:"recentWaste"`
	RecentReports   []domain.Report        `json:"recentReports"`
	Schedule        []domain.Schedule      `json:"schedule"`
}

// BuildResidentDashboard summarises the records of user. Lists are taken
// newest first as stored: five waste entries and three reports.
func BuildResidentDashboard(user domain.User, waste []domain.WasteLogEntry, reports []domain.Report, schedules []domain.Schedule) ResidentDashboard {
	ownWaste := FilterByOwner(waste, user.ID)
	ownReports := FilterByOwner(reports, user.ID)
	return ResidentDashboard{
		User:            user.Public(),
		TotalWasteKg:    RoundTenth(SumWeight(ownWaste)),
		WasteEntries:    len(ownWaste),
		TotalReports:    len(ownReports),
		PendingReports:  len(FilterByStatus(ownReports, string(domain.ReportPending))),
		VerifiedReports: len(FilterByStatus(ownReports, string(domain.ReportVerified))),
		RecentWaste:     head(ownWaste, 5),
		RecentReports:   head(ownReports, 3),
		Schedule:        SortByWeekday(FilterByRegion(schedules, user.Region), WeekdayOrder[:]),
	}
}

// AgencyDashboard is the landing view of the agency.
type AgencyDashboard struct {
	TotalReports    int                            `json:"totalReports"`
	PendingReports  int                            `json:"pendingReports"`
	VerifiedReports int                            `json:"verifiedReports"`
	TotalWasteKg    float64                        `json:"totalWaste"`
	Residents       int                            `json:"residents"`
	RecentReports   []domain.Report                `json:"recentReports"`
	Schedules       []RegionGroup[domain.Schedule] `json:"schedules"`
}

// BuildAgencyDashboard summarises every report and waste entry.
func BuildAgencyDashboard(users []domain.User, waste []domain.WasteLogEntry, reports []domain.Report, schedules []domain.Schedule) AgencyDashboard {
	residents := 0
	for _, u := range users {
		if u.Role == domain.RoleResident {
			residents++
		}
	}
	return AgencyDashboard{
		TotalReports:    len(reports),
		PendingReports:  len(FilterByStatus(reports, string(domain.ReportPending))),
		VerifiedReports: len(FilterByStatus(reports, string(domain.ReportVerified))),
		TotalWasteKg:    RoundTenth(SumWeight(waste)),
		Residents:       residents,
		RecentReports:   head(reports, 5),
		Schedules:       GroupByRegion(SortSchedulesByRegion(schedules)),
	}
}

// ResidentStats is one row of the agency's resident roster.
type ResidentStats struct {
	domain.User
	WasteEntries int     `json:"wasteEntries"`
	TotalWasteKg float64 `json:"totalWeight"`
	Reports      int     `json:"reports"`
}

// BuildResidentRoster lists residents with their waste and report totals.
func BuildResidentRoster(users []domain.User, waste []domain.WasteLogEntry, reports []domain.Report) []ResidentStats {
	out := make([]ResidentStats, 0, len(users))
	for _, u := range users {
		if u.Role != domain.RoleResident {
			continue
		}
		own := FilterByOwner(waste, u.ID)
		out = append(out, ResidentStats{
			User:         u.Public(),
			WasteEntries: len(own),
			TotalWasteKg: RoundTenth(SumWeight(own)),
			Reports:      len(FilterByOwner(reports, u.ID)),
		})
	}
	return out
}
