package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
	"github.com/noah-isme/surveyhustler-api/pkg/response"
)

type academicService interface {
	Tree(ctx context.Context) ([]models.InstitutionTree, error)
	Institutions(ctx context.Context) ([]models.Institution, error)
	Colleges(ctx context.Context, institutionID int64) ([]models.College, error)
	Departments(ctx context.Context, collegeID int64) ([]models.Department, error)
	Courses(ctx context.Context, departmentID int64) ([]models.Course, error)
	NicheOptions(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error)
	LevelOptions(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error)
}

// AcademicHandler serves the hierarchy options used by registration and filters.
type AcademicHandler struct {
	service academicService
}

// NewAcademicHandler constructs the handler.
func NewAcademicHandler(svc academicService) *AcademicHandler {
	return &AcademicHandler{service: svc}
}

// Tree godoc
// @Summary Full academic hierarchy
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academics/options [get]
func (h *AcademicHandler) Tree(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree, nil)
}

// Institutions godoc
// @Summary List institutions
// @Tags Academics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academics/institutions [get]
func (h *AcademicHandler) Institutions(c *gin.Context) {
	items, err := h.service.Institutions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Colleges godoc
// @Summary List colleges of an institution
// @Tags Academics
// @Produce json
// @Param id path int true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /academics/institutions/{id}/colleges [get]
func (h *AcademicHandler) Colleges(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.Colleges(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Departments godoc
// @Summary List departments of a college
// @Tags Academics
// @Produce json
// @Param id path int true "College ID"
// @Success 200 {object} response.Envelope
// @Router /academics/colleges/{id}/departments [get]
func (h *AcademicHandler) Departments(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.Departments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Courses godoc
// @Summary List courses of a department
// @Tags Academics
// @Produce json
// @Param id path int true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /academics/departments/{id}/courses [get]
func (h *AcademicHandler) Courses(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.Courses(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Niches godoc
// @Summary Nodes selectable for a filter dimension
// @Tags Academics
// @Produce json
// @Param filter_by query string true "college, department or course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academics/niches [get]
func (h *AcademicHandler) Niches(c *gin.Context) {
	dimension, err := dimensionQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.NicheOptions(c.Request.Context(), dimension)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Levels godoc
// @Summary Levels offered under a node
// @Tags Academics
// @Produce json
// @Param filter_by query string true "college, department or course"
// @Param id query int true "Node ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /academics/levels [get]
func (h *AcademicHandler) Levels(c *gin.Context) {
	dimension, err := dimensionQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, convErr := strconv.ParseInt(c.Query("id"), 10, 64)
	if convErr != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid id"))
		return
	}
	levels, err := h.service.LevelOptions(c.Request.Context(), dimension, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

func dimensionQuery(c *gin.Context) (models.FilterDimension, error) {
	dimension := models.FilterDimension(c.Query("filter_by"))
	if !dimension.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "filter_by must be college, department or course")
	}
	return dimension, nil
}
