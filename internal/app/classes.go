package app

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/lapor-jamkos/internal/export"
	"github.com/Spok95/lapor-jamkos/internal/models"
	"github.com/Spok95/lapor-jamkos/internal/qr"
)

type classView struct {
	models.Classroom
	QRURL string `json:"qr_url"`
}

func (s *Server) classView(cls models.Classroom) classView {
	return classView{Classroom: cls, QRURL: qr.PayloadURL(s.cfg.PublicBaseURL, cls.Token)}
}

type classRequest struct {
	Name string `json:"name"`
}

func (s *Server) listClasses(c *gin.Context) {
	list, err := s.registry.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	out := make([]classView, 0, len(list))
	for _, cls := range list {
		out = append(out, s.classView(cls))
	}
	c.JSON(http.StatusOK, gin.H{"classes": out})
}

func (s *Server) createClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadRequest})
		return
	}
	cls, err := s.registry.Create(c.Request.Context(), req.Name)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.JSON(http.StatusCreated, s.classView(cls))
}

func (s *Server) renameClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadRequest})
		return
	}
	cls, err := s.registry.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.JSON(http.StatusOK, s.classView(cls))
}

// deleteClass необратим; подтверждение спрашивает клиент. Заявки класса остаются.
func (s *Server) deleteClass(c *gin.Context) {
	if err := s.registry.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) classQR(c *gin.Context) {
	cls, err := s.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.JSON(http.StatusOK, s.classView(cls))
}

func (s *Server) classQRPNG(c *gin.Context) {
	cls, err := s.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	png, err := qr.PNG(qr.PayloadURL(s.cfg.PublicBaseURL, cls.Token), 0)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="qr.png"; filename*=UTF-8''%s`, url.PathEscape("QR "+cls.Name+".png")))
	c.Data(http.StatusOK, "image/png", png)
}

// exportClasses: лист для печати QR-кодов и сводка заявок по классам.
func (s *Server) exportClasses(c *gin.Context) {
	ctx := c.Request.Context()
	classes, err := s.registry.List(ctx, "")
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	reports, err := s.reports.AllReports(ctx)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	payload := func(token string) string { return qr.PayloadURL(s.cfg.PublicBaseURL, token) }
	b, err := export.ClassesXLSX(classes, reports, payload, s.cfg.Location)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	name := export.BuildClassesFilename(time.Now().In(s.cfg.Location))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="kelas.xlsx"; filename*=UTF-8''%s`, url.PathEscape(name)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}
