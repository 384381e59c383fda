package app

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexHTML []byte

// index: точка входа ученика, на неё ведёт QR (/?token=...).
func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// scan отдаёт экрану подтверждения имя класса по токену.
func (s *Server) scan(c *gin.Context) {
	cls, err := s.engine.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cls.ID, "name": cls.Name})
}

type submitRequest struct {
	Token string `json:"token"`
}

func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadRequest})
		return
	}
	r, err := s.engine.Submit(c.Request.Context(), req.Token)
	if err != nil {
		s.respondErr(c, err, msgSubmitError)
		return
	}
	c.JSON(http.StatusCreated, s.view(r))
}
