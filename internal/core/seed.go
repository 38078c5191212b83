package core

import "wasteportal/pkg/domain"

const (
	regionSukajadi = "Kelurahan Sukajadi"
	regionCibadak  = "Kelurahan Cibadak"
	regionMenteng  = "Kelurahan Menteng"
)

// seedAccount is a provisioned user with its plain credential. Credentials
// are hashed before the directory persists them.
type seedAccount struct {
	user       domain.User
	credential string
}

func seedAccounts() []seedAccount {
	return []seedAccount{
		{
			credential: "123",
			user: domain.User{
				ID:       1,
				Username: "user",
				Role:     domain.RoleResident,
				Name:     "Budi Santoso",
				Email:    "budi@example.com",
				Phone:    "081234567890",
				Address:  "Jl. Merdeka No. 123, RT 05/RW 02",
				Region:   regionSukajadi,
			},
		},
		{
			credential: "admin",
			user: domain.User{
				ID:       2,
				Username: "admin",
				Role:     domain.RoleAgency,
				Name:     "Admin DLH",
				Email:    "admin@dlh.go.id",
				Phone:    "02112345678",
				Position: "Kepala Dinas Lingkungan Hidup",
			},
		},
	}
}

// SeedReports returns a fresh copy of the initial report collection,
// newest first.
func SeedReports() []domain.Report {
	verified := func(at string) *string { return &at }
	return []domain.Report{
		{
			ID:          1,
			UserID:      1,
			UserName:    "Budi Santoso",
			Title:       "Sampah Menumpuk di TPS",
			Description: "Sampah menumpuk di TPS Jl. Merdeka sejak 2 hari yang lalu dan belum diangkut. Mulai menimbulkan bau tidak sedap.",
			Category:    domain.CategoryWasteAccumulation,
			Location:    "Jl. Merdeka No. 123, Kelurahan Sukajadi",
			Status:      domain.ReportPending,
			CreatedAt:   "2025-01-15T08:30:00",
		},
		{
			ID:          2,
			UserID:      1,
			UserName:    "Budi Santoso",
			Title:       "Pembuangan Sampah Liar",
			Description: "Ada pembuangan sampah liar di pinggir jalan dekat taman. Sampah plastik dan kardus berserakan.",
			Category:    domain.CategoryIllegalDumping,
			Location:    "Jl. Sudirman, dekat Taman Kota",
			Status:      domain.ReportVerified,
			CreatedAt:   "2025-01-10T14:20:00",
			VerifiedAt:  verified("2025-01-11T09:15:00"),
		},
		{
			ID:          3,
			UserID:      1,
			UserName:    "Budi Santoso",
			Title:       "Saluran Air Tersumbat Sampah",
			Description: "Saluran air di depan rumah tersumbat oleh sampah plastik. Saat hujan air menggenang.",
			Category:    domain.CategoryInfrastructure,
			Location:    "Jl. Merdeka No. 100-150",
			Status:      domain.ReportPending,
			CreatedAt:   "2025-01-13T16:45:00",
		},
		{
			ID:          4,
			UserID:      1,
			UserName:    "Budi Santoso",
			Title:       "Tumpukan Sampah di Sungai",
			Description: "Banyak sampah mengambang di sungai dekat jembatan. Perlu pembersihan segera.",
			Category:    domain.CategoryRiverPollution,
			Location:    "Sungai Ciliwung, Jembatan Jl. Gatot Subroto",
			Status:      domain.ReportVerified,
			CreatedAt:   "2025-01-08T10:00:00",
			VerifiedAt:  verified("2025-01-09T08:30:00"),
		},
	}
}

// SeedWasteLog returns the recorded disposal events.
func SeedWasteLog() []domain.WasteLogEntry {
	entry := func(id int64, date string, t domain.WasteType, kg float64) domain.WasteLogEntry {
		return domain.WasteLogEntry{ID: id, UserID: 1, Date: date, Type: t, WeightKg: kg, Status: "terkumpul", Region: regionSukajadi}
	}
	return []domain.WasteLogEntry{
		entry(1, "2025-01-15", domain.WasteOrganic, 2.5),
		entry(2, "2025-01-14", domain.WasteInorganic, 1.8),
		entry(3, "2025-01-13", domain.WasteOrganic, 3.2),
		entry(4, "2025-01-12", domain.WasteHazardous, 0.5),
		entry(5, "2025-01-10", domain.WasteOrganic, 2.1),
	}
}

// SeedSchedules returns the pickup schedule of every region.
func SeedSchedules() []domain.Schedule {
	slot := func(id int64, region, day, at string, t domain.WasteType) domain.Schedule {
		return domain.Schedule{ID: id, Region: region, Day: day, Time: at, Type: t, Status: "aktif"}
	}
	return []domain.Schedule{
		slot(1, regionSukajadi, "Senin", "07:00", domain.WasteOrganic),
		slot(2, regionSukajadi, "Rabu", "07:00", domain.WasteInorganic),
		slot(3, regionSukajadi, "Jumat", "07:00", domain.WasteOrganic),
		slot(4, regionCibadak, "Selasa", "08:00", domain.WasteOrganic),
		slot(5, regionCibadak, "Kamis", "08:00", domain.WasteInorganic),
		slot(6, regionMenteng, "Senin", "06:30", domain.WasteOrganic),
		slot(7, regionMenteng, "Rabu", "06:30", domain.WasteInorganic),
		slot(8, regionMenteng, "Sabtu", "06:30", domain.WasteHazardous),
	}
}
