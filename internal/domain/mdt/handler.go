package mdt

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mdt/mdt/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the case and search endpoints on an authenticated
// group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/cases", h.CreateCase)
	api.GET("/cases/:id", h.GetCase)
	api.PUT("/cases/:id", h.UpdateCase)
	api.POST("/cases/:id/pathology-reports", h.addReport(KindPathology))
	api.POST("/cases/:id/imaging-reports", h.addReport(KindImaging))
	api.POST("/cases/:id/treatments", h.AddTreatment)
	api.PUT("/cases/:id/consensus", h.FinalizeConsensus)
	api.GET("/cases/:id/document.pdf", h.document(FormatPDF))
	api.GET("/cases/:id/document.html", h.document(FormatHTML))

	api.GET("/search/date", h.SearchByDate)
	api.GET("/search/hn", h.SearchByHospitalNumber)
}

type createCaseRequest struct {
	HospitalNumber string `json:"hospital_number"`
	CaseInput
}

type consensusRequest struct {
	ConsensusText string   `json:"consensus_text"`
	Followups     []string `json:"followups"`
}

func (h *Handler) CreateCase(c echo.Context) error {
	var req createCaseRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	res, err := h.svc.CreateCase(c.Request().Context(), req.HospitalNumber, req.CaseInput)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/cases/"+strconv.FormatInt(res.CaseID, 10))
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.LoadCaseDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateCase(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in CaseInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	updated, err := h.svc.UpdateCase(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) addReport(kind ReportKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		var in ReportInput
		if err := c.Bind(&in); err != nil {
			return apperr.Validation("", "invalid request body")
		}
		rep, err := h.svc.AddReport(c.Request().Context(), id, kind, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, rep)
	}
}

func (h *Handler) AddTreatment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in TreatmentInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	t, err := h.svc.AddTreatment(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) FinalizeConsensus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req consensusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	cons, err := h.svc.FinalizeConsensus(c.Request().Context(), id, req.ConsensusText, req.Followups)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) document(format Format) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		doc, err := h.svc.RenderDocument(c.Request().Context(), id, format)
		if err != nil {
			return err
		}
		disposition := "inline"
		if c.QueryParam("download") == "1" {
			disposition = "attachment"
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, disposition+`; filename="`+doc.Filename+`"`)
		return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
	}
}

func (h *Handler) SearchByDate(c echo.Context) error {
	hits, err := h.svc.SearchByDateRange(c.Request().Context(), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": hits, "total": len(hits)})
}

func (h *Handler) SearchByHospitalNumber(c echo.Context) error {
	hits, err := h.svc.SearchByHospitalNumber(c.Request().Context(), c.QueryParam("hn"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": hits, "total": len(hits)})
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "invalid id")
	}
	return id, nil
}
