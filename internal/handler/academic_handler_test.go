package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/surveyhustler-api/internal/models"
)

type academicMock struct {
	lastID        int64
	lastDimension models.FilterDimension
}

func (m *academicMock) Tree(ctx context.Context) ([]models.InstitutionTree, error) {
	return []models.InstitutionTree{{ID: 1, Name: "Covenant University"}}, nil
}

func (m *academicMock) Institutions(ctx context.Context) ([]models.Institution, error) {
	return []models.Institution{{ID: 1, Name: "Covenant University"}}, nil
}

func (m *academicMock) Colleges(ctx context.Context, institutionID int64) ([]models.College, error) {
	m.lastID = institutionID
	return []models.College{{ID: 2, Name: "College of Engineering", InstitutionID: institutionID}}, nil
}

func (m *academicMock) Departments(ctx context.Context, collegeID int64) ([]models.Department, error) {
	m.lastID = collegeID
	return nil, nil
}

func (m *academicMock) Courses(ctx context.Context, departmentID int64) ([]models.Course, error) {
	m.lastID = departmentID
	return nil, nil
}

func (m *academicMock) NicheOptions(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error) {
	m.lastDimension = dimension
	return []models.NamedOption{{ID: 9, Name: "Computer Science"}}, nil
}

func (m *academicMock) LevelOptions(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error) {
	m.lastDimension, m.lastID = dimension, id
	return []string{models.LevelAll, "100", "200"}, nil
}

func TestAcademicHandler(t *testing.T) {
	svc := &academicMock{}
	h := NewAcademicHandler(svc)
	router := testRouter()
	router.GET("/academics/options", h.Tree)
	router.GET("/academics/institutions", h.Institutions)
	router.GET("/academics/institutions/:id/colleges", h.Colleges)
	router.GET("/academics/colleges/:id/departments", h.Departments)
	router.GET("/academics/departments/:id/courses", h.Courses)
	router.GET("/academics/niches", h.Niches)
	router.GET("/academics/levels", h.Levels)

	w := performRequest(router, jsonRequest(http.MethodGet, "/academics/options", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Covenant University")

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/institutions/1/colleges", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), svc.lastID)

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/colleges/abc/departments", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/departments/7/courses", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), svc.lastID)

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/niches?filter_by=course", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DimensionCourse, svc.lastDimension)

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/niches?filter_by=faculty", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/levels?filter_by=college&id=2", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["All","100","200"]`, string(decode(t, w).Data))

	w = performRequest(router, jsonRequest(http.MethodGet, "/academics/levels?filter_by=college", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
