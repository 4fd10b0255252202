package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/surveyhustler-api/internal/models"
)

// AcademicRepository reads the institution hierarchy.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository constructs the repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// ListInstitutions returns every institution ordered by name.
func (r *AcademicRepository) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	var items []models.Institution
	if err := r.db.SelectContext(ctx, &items, `SELECT id, name FROM institutions ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return items, nil
}

// ListColleges returns colleges, optionally restricted to one institution.
func (r *AcademicRepository) ListColleges(ctx context.Context, institutionID *int64) ([]models.College, error) {
	var items []models.College
	var err error
	if institutionID != nil {
		err = r.db.SelectContext(ctx, &items, `SELECT id, name, institution_id FROM colleges WHERE institution_id = $1 ORDER BY name`, *institutionID)
	} else {
		err = r.db.SelectContext(ctx, &items, `SELECT id, name, institution_id FROM colleges ORDER BY name`)
	}
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return items, nil
}

// ListDepartments returns departments, optionally restricted to one college.
func (r *AcademicRepository) ListDepartments(ctx context.Context, collegeID *int64) ([]models.Department, error) {
	var items []models.Department
	var err error
	if collegeID != nil {
		err = r.db.SelectContext(ctx, &items, `SELECT id, name, college_id FROM departments WHERE college_id = $1 ORDER BY name`, *collegeID)
	} else {
		err = r.db.SelectContext(ctx, &items, `SELECT id, name, college_id FROM departments ORDER BY name`)
	}
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return items, nil
}

// ListCourses returns courses, optionally restricted to one department.
func (r *AcademicRepository) ListCourses(ctx context.Context, departmentID *int64) ([]models.Course, error) {
	var items []models.Course
	var err error
	if departmentID != nil {
		err = r.db.SelectContext(ctx, &items, `SELECT id, name, department_id FROM courses WHERE department_id = $1 ORDER BY name`, *departmentID)
	} else {
		err = r.db.SelectContext(ctx, &items, `SELECT id, name, department_id FROM courses ORDER BY name`)
	}
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return items, nil
}

// ListLevels returns every level row.
func (r *AcademicRepository) ListLevels(ctx context.Context) ([]models.Level, error) {
	var items []models.Level
	if err := r.db.SelectContext(ctx, &items, `SELECT id, value, course_id FROM levels ORDER BY course_id, value`); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return items, nil
}

// LevelsUnder returns the distinct levels offered by courses beneath a hierarchy node.
func (r *AcademicRepository) LevelsUnder(ctx context.Context, dimension models.FilterDimension, id int64) ([]string, error) {
	var query string
	switch dimension {
	case models.DimensionCourse:
		query = `SELECT DISTINCT l.value FROM levels l WHERE l.course_id = $1`
	case models.DimensionDepartment:
		query = `SELECT DISTINCT l.value FROM levels l JOIN courses c ON c.id = l.course_id WHERE c.department_id = $1`
	case models.DimensionCollege:
		query = `SELECT DISTINCT l.value FROM levels l JOIN courses c ON c.id = l.course_id
JOIN departments d ON d.id = c.department_id WHERE d.college_id = $1`
	default:
		return nil, fmt.Errorf("unknown dimension %q", dimension)
	}
	var values []string
	if err := r.db.SelectContext(ctx, &values, query, id); err != nil {
		return nil, fmt.Errorf("list levels under %s: %w", dimension, err)
	}
	return values, nil
}

// Options returns the selectable nodes of a dimension.
func (r *AcademicRepository) Options(ctx context.Context, dimension models.FilterDimension) ([]models.NamedOption, error) {
	table, err := dimensionTable(dimension)
	if err != nil {
		return nil, err
	}
	var items []models.NamedOption
	if err := r.db.SelectContext(ctx, &items, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name`, table)); err != nil {
		return nil, fmt.Errorf("list %s options: %w", dimension, err)
	}
	return items, nil
}

// NodeName resolves the display name of a hierarchy node.
func (r *AcademicRepository) NodeName(ctx context.Context, dimension models.FilterDimension, id int64) (string, error) {
	table, err := dimensionTable(dimension)
	if err != nil {
		return "", err
	}
	var name string
	if err := r.db.GetContext(ctx, &name, fmt.Sprintf(`SELECT name FROM %s WHERE id = $1`, table), id); err != nil {
		return "", err
	}
	return name, nil
}

// PlacementExists reports whether the chain institution → college → department → course → level is consistent.
func (r *AcademicRepository) PlacementExists(ctx context.Context, p models.AcademicPlacement) (bool, error) {
	const query = `SELECT EXISTS (
  SELECT 1 FROM levels l
  JOIN courses c ON c.id = l.course_id
  JOIN departments d ON d.id = c.department_id
  JOIN colleges co ON co.id = d.college_id
  WHERE co.institution_id = $1 AND co.id = $2 AND d.id = $3 AND c.id = $4 AND l.value = $5
)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, p.InstitutionID, p.CollegeID, p.DepartmentID, p.CourseID, p.Level); err != nil {
		return false, fmt.Errorf("check placement: %w", err)
	}
	return exists, nil
}

func dimensionTable(dimension models.FilterDimension) (string, error) {
	switch dimension {
	case models.DimensionCollege:
		return "colleges", nil
	case models.DimensionDepartment:
		return "departments", nil
	case models.DimensionCourse:
		return "courses", nil
	}
	return "", fmt.Errorf("unknown dimension %q", dimension)
}
