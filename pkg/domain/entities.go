// Package domain defines the persistent entities, value types, and storage
// ports shared by the wasteportal service, HTTP adapter, and CLI.
package domain

import "strings"

// Role identifies the dashboard a user is allowed to enter.
type Role string

// Supported roles. Values match the stored user records.
const (
	// RoleResident identifies a resident (warga) submitting reports.
	RoleResident Role = "warga"
	// RoleAgency identifies the environmental agency (DLH) triaging reports.
	RoleAgency Role = "dlh"
)

// Valid reports whether r is a recognised role.
func (r Role) Valid() bool {
	return r == RoleResident || r == RoleAgency
}

// User is a provisioned portal account. PasswordHash never leaves the user
// directory; callers receive the output of Public.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Role         Role   `json:"role"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Region       string `json:"wilayah,omitempty"`
	Position     string `json:"position,omitempty"`
}

// Public returns a copy of the user with the credential stripped.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// OwnerID implements the owner accessor used by query helpers.
func (u User) OwnerID() int64 { return u.ID }

// RegionLabel implements the region accessor used by query helpers.
func (u User) RegionLabel() string { return u.Region }

// Category classifies a reported environmental problem.
type Category string

// Report categories offered by the reporting form.
const (
	CategoryWasteAccumulation Category = "sampah"
	CategoryIllegalDumping    Category = "pembuangan-liar"
	CategoryInfrastructure    Category = "infrastruktur"
	CategoryRiverPollution    Category = "sungai"
	CategoryOther             Category = "lainnya"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWasteAccumulation, CategoryIllegalDumping, CategoryInfrastructure, CategoryRiverPollution, CategoryOther:
		return true
	}
	return false
}

// ReportStatus is the report lifecycle state. The only transition is
// pending -> verified.
type ReportStatus string

// Report lifecycle states.
const (
	ReportPending  ReportStatus = "pending"
	ReportVerified ReportStatus = "verified"
)

// Valid reports whether s is a recognised report status.
func (s ReportStatus) Valid() bool {
	return s == ReportPending || s == ReportVerified
}

// Report is a resident-submitted environmental issue. Timestamps are kept as
// ISO-8601 strings so that persisted records round-trip byte for byte.
type Report struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"userId"`
	UserName    string       `json:"userName"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Location    string       `json:"location"`
	Status      ReportStatus `json:"status"`
	CreatedAt   string       `json:"createdAt"`
	VerifiedAt  *string      `json:"verifiedAt"`
	Photo       *string      `json:"photo"`
	Assigned    bool         `json:"assigned,omitempty"`
	AssignedAt  *string      `json:"assignedAt,omitempty"`
}

// OwnerID implements the owner accessor used by query helpers.
func (r Report) OwnerID() int64 { return r.UserID }

// StatusLabel implements the status accessor used by query helpers.
func (r Report) StatusLabel() string { return string(r.Status) }

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	cp := r
	cp.VerifiedAt = cloneString(r.VerifiedAt)
	cp.Photo = cloneString(r.Photo)
	cp.AssignedAt = cloneString(r.AssignedAt)
	return cp
}

// ReportDraft carries the fields a resident submits. Identity, status and
// timestamps are assigned by the report store.
type ReportDraft struct {
	UserID      int64    `json:"userId"`
	UserName    string   `json:"userName"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Location    string   `json:"location"`
	Photo       *string  `json:"photo,omitempty"`
}

// Normalize trims free-text fields and defaults the category.
func (d ReportDraft) Normalize() ReportDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	if d.Category == "" {
		d.Category = CategoryWasteAccumulation
	}
	return d
}

// ReportPatch lists report fields to overwrite. Nil fields are left untouched.
type ReportPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Category    *Category     `json:"category,omitempty"`
	Location    *string       `json:"location,omitempty"`
	Status      *ReportStatus `json:"status,omitempty"`
	VerifiedAt  *string       `json:"verifiedAt,omitempty"`
	Photo       *string       `json:"photo,omitempty"`
	Assigned    *bool         `json:"assigned,omitempty"`
	AssignedAt  *string       `json:"assignedAt,omitempty"`
}

// Empty reports whether the patch carries no field.
func (p ReportPatch) Empty() bool {
	return p == ReportPatch{}
}

// WasteType classifies collected waste.
type WasteType string

// Waste types used by waste logs and pickup schedules.
const (
	WasteOrganic   WasteType = "organik"
	WasteInorganic WasteType = "anorganik"
	WasteHazardous WasteType = "B3"
)

// WasteLogEntry is a recorded disposal event.
type WasteLogEntry struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	Date     string    `json:"date"`
	Type     WasteType `json:"type"`
	WeightKg float64   `json:"weight"`
	Status   string    `json:"status"`
	Region   string    `json:"wilayah"`
}

// OwnerID implements the owner accessor used by query helpers.
func (w WasteLogEntry) OwnerID() int64 { return w.UserID }

// RegionLabel implements the region accessor used by query helpers.
func (w WasteLogEntry) RegionLabel() string { return w.Region }

// StatusLabel implements the status accessor used by query helpers.
func (w WasteLogEntry) StatusLabel() string { return w.Status }

// Weight implements the weight accessor used by query helpers.
func (w WasteLogEntry) Weight() float64 { return w.WeightKg }

// Schedule is a recurring pickup slot for a region.
type Schedule struct {
	ID     int64     `json:"id"`
	Region string    `json:"wilayah"`
	Day    string    `json:"day"`
	Time   string    `json:"time"`
	Type   WasteType `json:"type"`
	Status string    `json:"status"`
}

// RegionLabel implements the region accessor used by query helpers.
func (s Schedule) RegionLabel() string { return s.Region }

// WeekdayName implements the weekday accessor used by query helpers.
func (s Schedule) WeekdayName() string { return s.Day }

// StatusLabel implements the status accessor used by query helpers.
func (s Schedule) StatusLabel() string { return s.Status }

// WalletEntry records one change to a resident's reward wallet.
type WalletEntry struct {
	At      string  `json:"at"`
	Points  int64   `json:"points"`
	Balance float64 `json:"balance"`
	Reason  string  `json:"reason"`
}

// Wallet is the resident gamification state.
type Wallet struct {
	UserID  int64         `json:"userId"`
	Balance float64       `json:"balance"`
	Points  int64         `json:"points"`
	History []WalletEntry `json:"history"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
