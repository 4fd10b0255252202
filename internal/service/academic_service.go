package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/internal/models"
	appErrors "github.com/noah-isme/surveyhustler-api/pkg/errors"
)

type academicRepository interface {
	ListInstitutions(ctx context.Context) ([]models.Institution, error)
	ListColleges(ctx context.Context, institutionID *int64) ([]models.College, error)
	ListDepartments(ctx context.Context, collegeID *int64) ([]models.Department, error)
	ListCourses(ctx context.Context, departmentID *int64) ([]models.Course, error)
	ListLevels(ctx context.Context) ([]models.Level, error)
	LevelsUnder(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error)
	Options(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error)
	NodeName(ctx context.Context, dimension models.FilterDimension, id int64) (string, error)
}

// AcademicService serves the institution hierarchy to registration forms and niche editors.
type AcademicService struct {
	repo   academicRepository
	logger *zap.Logger
}

// NewAcademicService constructs an AcademicService.
func NewAcademicService(repo academicRepository, logger *zap.Logger) *AcademicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, logger: logger}
}

// Tree returns the full hierarchy nested institution first.
func (s *AcademicService) Tree(ctx context.Context) ([]models.InstitutionTree, error) {
	institutions, err := s.repo.ListInstitutions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	colleges, err := s.repo.ListColleges(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list colleges")
	}
	departments, err := s.repo.ListDepartments(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	courses, err := s.repo.ListCourses(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}

	levelsByCourse := make(map[int64][]string)
	for _, l := range levels {
		levelsByCourse[l.CourseID] = append(levelsByCourse[l.CourseID], l.Value)
	}
	coursesByDept := make(map[int64][]models.CourseTree)
	for _, c := range courses {
		coursesByDept[c.DepartmentID] = append(coursesByDept[c.DepartmentID], models.CourseTree{
			ID: c.ID, Name: c.Name, Levels: SortLevels(levelsByCourse[c.ID]),
		})
	}
	deptsByCollege := make(map[int64][]models.DepartmentTree)
	for _, d := range departments {
		deptsByCollege[d.CollegeID] = append(deptsByCollege[d.CollegeID], models.DepartmentTree{
			ID: d.ID, Name: d.Name, Courses: nonNilCourses(coursesByDept[d.ID]),
		})
	}
	collegesByInst := make(map[int64][]models.CollegeTree)
	for _, c := range colleges {
		collegesByInst[c.InstitutionID] = append(collegesByInst[c.InstitutionID], models.CollegeTree{
			ID: c.ID, Name: c.Name, Departments: nonNilDepartments(deptsByCollege[c.ID]),
		})
	}

	tree := make([]models.InstitutionTree, 0, len(institutions))
	for _, inst := range institutions {
		cs := collegesByInst[inst.ID]
		if cs == nil {
			cs = []models.CollegeTree{}
		}
		tree = append(tree, models.InstitutionTree{ID: inst.ID, Name: inst.Name, Colleges: cs})
	}
	return tree, nil
}

// Institutions lists every institution.
func (s *AcademicService) Institutions(ctx context.Context) ([]models.Institution, error) {
	items, err := s.repo.ListInstitutions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return items, nil
}

// Colleges lists the colleges of an institution.
func (s *AcademicService) Colleges(ctx context.Context, institutionID int64) ([]models.College, error) {
	items, err := s.repo.ListColleges(ctx, &institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list colleges")
	}
	return items, nil
}

// Departments lists the departments of a college.
func (s *AcademicService) Departments(ctx context.Context, collegeID int64) ([]models.Department, error) {
	items, err := s.repo.ListDepartments(ctx, &collegeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return items, nil
}

// Courses lists the courses of a department.
func (s *AcademicService) Courses(ctx context.Context, departmentID int64) ([]models.Course, error) {
	items, err := s.repo.ListCourses(ctx, &departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return items, nil
}

// NicheOptions lists the nodes a filter rule can target on dimension.
func (s *AcademicService) NicheOptions(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error) {
	if !dimension.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter_by must be college, department or course")
	}
	items, err := s.repo.Options(ctx, dimension)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list niche options")
	}
	return items, nil
}

// LevelOptions returns the levels offered beneath a node, prefixed by the "All" wildcard.
func (s *AcademicService) LevelOptions(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error) {
	if !dimension.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter_by must be college, department or course")
	}
	values, err := s.repo.LevelsUnder(ctx, dimension, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return append([]string{models.LevelAll}, SortLevels(values)...), nil
}

// NodeName resolves a node's display name.
func (s *AcademicService) NodeName(ctx context.Context, dimension models.FilterDimension, id int64) (string, error) {
	name, err := s.repo.NodeName(ctx, dimension, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, string(dimension)+" not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve "+string(dimension))
	}
	return name, nil
}

// SortLevels orders numeric levels numerically, followed by any others alphabetically.
func SortLevels(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return out[i] < out[j]
	})
	return out
}

func nonNilCourses(items []models.CourseTree) []models.CourseTree {
	if items == nil {
		return []models.CourseTree{}
	}
	return items
}

func nonNilDepartments(items []models.DepartmentTree) []models.DepartmentTree {
	if items == nil {
		return []models.DepartmentTree{}
	}
	return items
}
