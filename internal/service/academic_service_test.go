package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

type fakeAcademicRepo struct{}

func (fakeAcademicRepo) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	return []models.Institution{{ID: 1, Name: "Covenant University"}, {ID: 2, Name: "Empty Institute"}}, nil
}

func (fakeAcademicRepo) ListColleges(ctx context.Context, institutionID *int64) ([]models.College, error) {
	return []models.College{{ID: 10, Name: "College of Engineering", InstitutionID: 1}}, nil
}

func (fakeAcademicRepo) ListDepartments(ctx context.Context, collegeID *int64) ([]models.Department, error) {
	return []models.Department{{ID: 100, Name: "Electrical Engineering", CollegeID: 10}}, nil
}

func (fakeAcademicRepo) ListCourses(ctx context.Context, departmentID *int64) ([]models.Course, error) {
	return []models.Course{{ID: 1000, Name: "Computer Engineering", DepartmentID: 100}}, nil
}

func (fakeAcademicRepo) ListLevels(ctx context.Context) ([]models.Level, error) {
	return []models.Level{
		{ID: 1, Value: "500", CourseID: 1000},
		{ID: 2, Value: "100", CourseID: 1000},
		{ID: 3, Value: "300", CourseID: 1000},
	}, nil
}

func (fakeAcademicRepo) LevelsUnder(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error) {
	return []string{"200", "100", "200"}, nil
}

func (fakeAcademicRepo) Options(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error) {
	return []models.NamedOption{{ID: 10, Name: "College of Engineering"}}, nil
}

func (fakeAcademicRepo) NodeName(ctx context.Context, dimension models.FilterDimension, id int64) (string, error) {
	if id == 10 {
		return "College of Engineering", nil
	}
	return "", sql.ErrNoRows
}

func TestAcademicServiceTree(t *testing.T) {
	svc := NewAcademicService(fakeAcademicRepo{}, zap.NewNop())

	tree, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Len(t, tree[0].Colleges, 1)
	course := tree[0].Colleges[0].Departments[0].Courses[0]
	assert.Equal(t, "Computer Engineering", course.Name)
	assert.Equal(t, []string{"100", "300", "500"}, course.Levels)
	assert.NotNil(t, tree[1].Colleges)
	assert.Empty(t, tree[1].Colleges)
}

func TestAcademicServiceLevelOptions(t *testing.T) {
	svc := NewAcademicService(fakeAcademicRepo{}, zap.NewNop())

	levels, err := svc.LevelOptions(context.Background(), models.DimensionCollege, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{models.LevelAll, "100", "200"}, levels)

	_, err = svc.LevelOptions(context.Background(), models.FilterDimension("faculty"), 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestAcademicServiceNodeName(t *testing.T) {
	svc := NewAcademicService(fakeAcademicRepo{}, zap.NewNop())

	name, err := svc.NodeName(context.Background(), models.DimensionCollege, 10)
	require.NoError(t, err)
	assert.Equal(t, "College of Engineering", name)

	_, err = svc.NodeName(context.Background(), models.DimensionCollege, 11)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestSortLevels(t *testing.T) {
	assert.Equal(t, []string{"100", "200", "1000", "PG"}, SortLevels([]string{"PG", "1000", "200", "100", "200"}))
}
