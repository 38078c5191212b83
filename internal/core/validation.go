package core

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"wasteportal/pkg/domain"
)

// MaxPhotoBytes bounds an attached photo.
const MaxPhotoBytes = 5 << 20

// Messages shown to residents for rejected submissions.
const (
	msgTitleRequired       = "Judul laporan harus diisi"
	msgDescriptionRequired = "Deskripsi masalah harus diisi"
	msgLocationRequired    = "Lokasi harus diisi"
	msgPhotoNotImage       = "File harus berupa gambar"
	msgPhotoTooLarge       = "Ukuran file maksimal 5MB"
	msgCategoryUnknown     = "Kategori tidak dikenal"
	msgPhotoMalformed      = "Foto tidak dapat dibaca"
	msgVerifiedFinal       = "Laporan yang sudah terverifikasi tidak dapat dikembalikan ke status menunggu"
)

// ValidateDraft checks a normalized draft. Checks run in form order and the
// first failure is returned.
func ValidateDraft(d domain.ReportDraft) error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return domain.NewValidationError("title", msgTitleRequired)
	case strings.TrimSpace(d.Description) == "":
		return domain.NewValidationError("description", msgDescriptionRequired)
	case strings.TrimSpace(d.Location) == "":
		return domain.NewValidationError("location", msgLocationRequired)
	case !d.Category.Valid():
		return domain.NewValidationError("category", msgCategoryUnknown)
	}
	return nil
}

// ValidatePhoto checks the content type and size of an attachment.
func ValidatePhoto(contentType string, size int64) error {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return domain.NewValidationError("photo", msgPhotoNotImage)
	}
	if size > MaxPhotoBytes {
		return domain.NewValidationError("photo", msgPhotoTooLarge)
	}
	return nil
}

// IsDataURI reports whether s looks like an inline data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI parses "data:<type>[;base64],<payload>" and validates the
// result as a photo.
func DecodeDataURI(s string) (contentType string, data []byte, err error) {
	if !IsDataURI(s) {
		return "", nil, domain.NewValidationError("photo", msgPhotoMalformed)
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, domain.NewValidationError("photo", msgPhotoMalformed)
	}
	params := strings.Split(header, ";")
	contentType = strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	// reject oversized payloads before decoding them
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > MaxPhotoBytes+3 {
		return "", nil, domain.NewValidationError("photo", msgPhotoTooLarge)
	}
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var text string
		text, err = url.PathUnescape(payload)
		data = []byte(text)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.NewValidationError("photo", msgPhotoMalformed), err)
	}
	if err := ValidatePhoto(contentType, int64(len(data))); err != nil {
		return "", nil, err
	}
	return contentType, data, nil
}
