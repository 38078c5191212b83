package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserPublicStripsCredential(t *testing.T) {
	u := User{ID: 1, Username: "user", PasswordHash: "$2a$hash", Role: RoleResident}
	pub := u.Public()
	if pub.PasswordHash != "" {
		t.Fatalf("expected credential stripped, got %q", pub.PasswordHash)
	}
	if u.PasswordHash == "" {
		t.Fatalf("Public must not mutate the receiver")
	}
	data, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "passwordHash") {
		t.Fatalf("public json leaks credential field: %s", data)
	}
}

func TestEnumValidity(t *testing.T) {
	if !RoleResident.Valid() || !RoleAgency.Valid() || Role("admin").Valid() {
		t.Fatalf("unexpected role validity")
	}
	if !CategoryRiverPollution.Valid() || Category("banjir").Valid() {
		t.Fatalf("unexpected category validity")
	}
	if !ReportPending.Valid() || !ReportVerified.Valid() || ReportStatus("rejected").Valid() {
		t.Fatalf("unexpected status validity")
	}
}

func TestReportCloneIsDeep(t *testing.T) {
	at := "2025-01-11T09:15:00"
	r := Report{ID: 2, Status: ReportVerified, VerifiedAt: &at}
	cp := r.Clone()
	*cp.VerifiedAt = "changed"
	if *r.VerifiedAt != "2025-01-11T09:15:00" {
		t.Fatalf("clone shares verifiedAt pointer")
	}
}

func TestReportJSONKeepsNullFields(t *testing.T) {
	data, err := json.Marshal(Report{ID: 1, Status: ReportPending, CreatedAt: "2025-01-15T08:30:00"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"verifiedAt":null`, `"photo":null`, `"userId":0`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}
}

func TestDraftNormalize(t *testing.T) {
	d := ReportDraft{Title: "  t ", Description: "d\n", Location: " l"}.Normalize()
	if d.Title != "t" || d.Description != "d" || d.Location != "l" {
		t.Fatalf("unexpected trim result: %+v", d)
	}
	if d.Category != CategoryWasteAccumulation {
		t.Fatalf("expected default category, got %q", d.Category)
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(ReportPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
	title := "x"
	if (ReportPatch{Title: &title}).Empty() {
		t.Fatalf("patch with title should not be empty")
	}
}

func TestValidationErrorMatching(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewValidationError("title", "required"))
	if !IsValidation(err) {
		t.Fatalf("expected validation error to match")
	}
	if IsValidation(errors.New("other")) {
		t.Fatalf("plain error must not match")
	}
	if got := NewValidationError("", "bad photo").Error(); got != "bad photo" {
		t.Fatalf("unexpected message %q", got)
	}
}
