package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wasteportal/internal/core"
	"wasteportal/pkg/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("", "Permintaan tidak valid"))
		return
	}
	ctx := c.Request.Context()
	token := uuid.NewString()
	user, err := s.svc.Session(token).Login(ctx, req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if old := s.token(c); old != "" {
		if err := s.svc.Session(old).Logout(ctx); err != nil {
			s.logger.Warn("end previous session", "error", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, 0, "/", "", false, true)
	writeJSON(c, http.StatusOK, gin.H{
		"status":   "success",
		"token":    token,
		"user":     user,
		"redirect": core.HomeFor(user.Role),
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	if token := c.GetString(ctxTokenKey); token != "" {
		if err := s.svc.Session(token).Logout(c.Request.Context()); err != nil {
			s.writeError(c, err)
			return
		}
	}
	c.SetCookie(s.cookieName, "", -1, "/", "", false, true)
	writeJSON(c, http.StatusOK, gin.H{"status": "success", "redirect": core.PathLogin})
}

func (s *Server) handleMe(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"user": currentUser(c)})
}

func (s *Server) handleResidentDashboard(c *gin.Context) {
	writeJSON(c, http.StatusOK, s.svc.ResidentDashboard(*currentUser(c)))
}

func (s *Server) handleResidentWaste(c *gin.Context) {
	entries := s.svc.WasteLog(currentUser(c).ID)
	writeJSON(c, http.StatusOK, gin.H{
		"entries":     entries,
		"totalWeight": core.RoundTenth(core.SumWeight(entries)),
	})
}

func (s *Server) handleResidentReports(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"reports": s.svc.ReportsOf(currentUser(c).ID)})
}

func (s *Server) handleSubmitReport(c *gin.Context) {
	user := *currentUser(c)
	ctx := c.Request.Context()
	var (
		report domain.Report
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		report, err = s.submitMultipart(c, user)
	} else {
		var draft domain.ReportDraft
		if bindErr := c.ShouldBindJSON(&draft); bindErr != nil {
			s.writeError(c, domain.NewValidationError("", "Permintaan tidak valid"))
			return
		}
		report, err = s.svc.SubmitReport(ctx, user, draft)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"status": "success", "report": report})
}

func (s *Server) submitMultipart(c *gin.Context, user domain.User) (domain.Report, error) {
	draft := domain.ReportDraft{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    domain.Category(c.PostForm("category")),
		Location:    c.PostForm("location"),
	}
	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return s.svc.SubmitReport(c.Request.Context(), user, draft)
	}
	if err != nil {
		return domain.Report{}, domain.NewValidationError("photo", "Foto tidak dapat dibaca")
	}
	contentType := fh.Header.Get("Content-Type")
	if err := core.ValidatePhoto(contentType, fh.Size); err != nil {
		return domain.Report{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Report{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, core.MaxPhotoBytes+1))
	if err != nil {
		return domain.Report{}, fmt.Errorf("read upload: %w", err)
	}
	return s.svc.SubmitReportWithPhoto(c.Request.Context(), user, draft, contentType, data)
}

func (s *Server) handleResidentSchedule(c *gin.Context) {
	user := currentUser(c)
	writeJSON(c, http.StatusOK, gin.H{"wilayah": user.Region, "schedules": s.svc.Schedules(user.Region)})
}

func (s *Server) handleWallet(c *gin.Context) {
	wallet, err := s.svc.Wallet(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, wallet)
}

func (s *Server) handleAgencyDashboard(c *gin.Context) {
	dash, err := s.svc.AgencyDashboard(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dash)
}

func (s *Server) handleAgencyReports(c *gin.Context) {
	reports, err := s.svc.ListReports(c.Query("status"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"reports": reports})
}

func (s *Server) handleUpdateReport(c *gin.Context) {
	id, ok := s.reportID(c)
	if !ok {
		return
	}
	var patch domain.ReportPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.writeError(c, domain.NewValidationError("", "Permintaan tidak valid"))
		return
	}
	s.respondReport(c)(s.svc.UpdateReport(c.Request.Context(), id, patch))
}

func (s *Server) handleVerifyReport(c *gin.Context) {
	if id, ok := s.reportID(c); ok {
		s.respondReport(c)(s.svc.VerifyReport(c.Request.Context(), id))
	}
}

func (s *Server) handleAssignReport(c *gin.Context) {
	if id, ok := s.reportID(c); ok {
		s.respondReport(c)(s.svc.AssignReport(c.Request.Context(), id))
	}
}

func (s *Server) handleAgencySchedule(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"groups": s.svc.ScheduleGroups()})
}

func (s *Server) handleResidents(c *gin.Context) {
	roster, err := s.svc.ResidentRoster(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"users": roster})
}

// handlePhoto streams a report photo to its owner or to the agency. HEAD
// requests only describe it.
func (s *Server) handlePhoto(c *gin.Context) {
	id, ok := s.reportID(c)
	if !ok {
		return
	}
	user := currentUser(c)
	report, found := s.svc.Reports().Get(id)
	if !found {
		writeMessage(c, http.StatusNotFound, msgReportNotFound)
		return
	}
	if user.Role != domain.RoleAgency && report.UserID != user.ID {
		writeMessage(c, http.StatusForbidden, msgForbidden)
		return
	}
	if report.Photo == nil {
		writeMessage(c, http.StatusNotFound, msgPhotoNotFound)
		return
	}
	if c.Request.Method == http.MethodHead {
		contentType, size, err := s.svc.Photos().Stat(c.Request.Context(), *report.Photo)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Header("Content-Type", contentType)
		c.Header("Content-Length", strconv.FormatInt(size, 10))
		c.Status(http.StatusOK)
		return
	}
	contentType, body, size, err := s.svc.Photos().Open(c.Request.Context(), *report.Photo)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, size, contentType, body, nil)
}

func (s *Server) reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, domain.NewValidationError("id", "ID laporan tidak valid"))
		return 0, false
	}
	return id, true
}

func (s *Server) respondReport(c *gin.Context) func(domain.Report, bool, error) {
	return func(report domain.Report, found bool, err error) {
		switch {
		case err != nil:
			s.writeError(c, err)
		case !found:
			writeMessage(c, http.StatusNotFound, msgReportNotFound)
		default:
			writeJSON(c, http.StatusOK, gin.H{"status": "success", "report": report})
		}
	}
}
