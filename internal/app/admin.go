package app

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/lapor-jamkos/internal/aggregate"
	"github.com/Spok95/lapor-jamkos/internal/export"
	"github.com/Spok95/lapor-jamkos/internal/lifecycle"
	"github.com/Spok95/lapor-jamkos/internal/models"
)

// reportView: заявка с производными полями для бейджей.
type reportView struct {
	models.Report
	StatusLabel string `json:"status_label"`
	Bucket      string `json:"bucket"`
}

func (s *Server) view(r models.Report) reportView {
	return reportView{Report: r, StatusLabel: r.Status.Label(), Bucket: r.Status.Bucket().String()}
}

func (s *Server) views(rs []models.Report) []reportView {
	out := make([]reportView, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.view(r))
	}
	return out
}

func (s *Server) dashboard(c *gin.Context) {
	snap, err := s.hub.Current(c.Request.Context())
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"today":         snap.Today,
		"all":           snap.All,
		"reports_today": snap.ReportsToday,
		"total_reports": snap.TotalReports,
		"total_classes": snap.TotalClasses,
		"recent":        s.views(snap.Recent),
	})
}

// filtered: общий разбор ?bucket=&q= для списка и выгрузки.
func (s *Server) filtered(c *gin.Context) (all, list []models.Report, ok bool) {
	b, err := models.ParseBucketFilter(c.Query("bucket"))
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return nil, nil, false
	}
	all, err = s.reports.AllReports(c.Request.Context())
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return nil, nil, false
	}
	return all, aggregate.List(all, aggregate.Filter{Bucket: b, Query: c.Query("q")}), true
}

func (s *Server) listReports(c *gin.Context) {
	all, list, ok := s.filtered(c)
	if !ok {
		return
	}
	day := aggregate.Day(time.Now(), s.cfg.Location)
	total := aggregate.Count(all, nil)
	today := aggregate.Count(all, &day)
	c.JSON(http.StatusOK, gin.H{
		"reports": s.views(list),
		"stats": gin.H{
			"total":          total.Total,
			"pending":        total.Unhandled,
			"in_progress":    total.InProgress,
			"resolved_today": today.Closed,
		},
	})
}

func (s *Server) exportReports(c *gin.Context) {
	_, list, ok := s.filtered(c)
	if !ok {
		return
	}
	b, err := export.ReportsXLSX(list, s.cfg.Location)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	filter := c.DefaultQuery("bucket", "all")
	name := export.BuildReportsFilename(filter, time.Now().In(s.cfg.Location))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="laporan.xlsx"; filename*=UTF-8''%s`, url.PathEscape(name)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}

type processRequest struct {
	PicketName         string `json:"picket_name"`
	MissingTeacherName string `json:"missing_teacher_name"`
	Status             string `json:"status"`
}

func (s *Server) processReport(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadRequest})
		return
	}
	r, err := s.engine.Process(c.Request.Context(), c.Param("id"), lifecycle.ProcessInput{
		PicketName:         req.PicketName,
		MissingTeacherName: req.MissingTeacherName,
		Status:             req.Status,
	})
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.JSON(http.StatusOK, s.view(r))
}

// triageDefaults: значения для открытия формы обработки на этом устройстве.
func (s *Server) triageDefaults(c *gin.Context) {
	statuses := make([]gin.H, 0, len(models.TriageStatuses))
	for _, st := range models.TriageStatuses {
		statuses = append(statuses, gin.H{"value": st, "label": st.Label()})
	}
	c.JSON(http.StatusOK, gin.H{
		"picket_name": s.engine.DefaultPicketName(c.Request.Context()),
		"statuses":    statuses,
	})
}
