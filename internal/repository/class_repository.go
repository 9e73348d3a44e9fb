package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanutri/seanutri-api/internal/models"
)

// ClassRepository handles persistence of scheduled classes and their rosters.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns scheduled classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ScheduledClassDetail, int, error) {
	base := `FROM scheduled_classes sc
LEFT JOIN courses c ON c.id = sc.course_id
LEFT JOIN instructors i ON i.id = sc.instructor_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("sc.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("sc.starts_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("sc.starts_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"starts_at":    "sc.starts_at",
		"course_title": "c.title",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "sc.starts_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT sc.id, sc.course_id, sc.instructor_id, sc.starts_at, sc.ends_at, sc.location, sc.location_url,
        sc.capacity, sc.status, sc.created_at, sc.updated_at,
        COALESCE(c.title, '') AS course_title, COALESCE(i.name, '') AS instructor_name,
        (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = sc.id) AS student_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var classes []models.ScheduledClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a scheduled class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ScheduledClass, error) {
	const query = `SELECT id, course_id, instructor_id, starts_at, ends_at, location, location_url, capacity, status, created_at, updated_at
        FROM scheduled_classes WHERE id = $1`
	var class models.ScheduledClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a scheduled class with contextual info.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ScheduledClassDetail, error) {
	const query = `SELECT sc.id, sc.course_id, sc.instructor_id, sc.starts_at, sc.ends_at, sc.location, sc.location_url,
        sc.capacity, sc.status, sc.created_at, sc.updated_at,
        COALESCE(c.title, '') AS course_title, COALESCE(i.name, '') AS instructor_name,
        (SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = sc.id) AS student_count
        FROM scheduled_classes sc
        LEFT JOIN courses c ON c.id = sc.course_id
        LEFT JOIN instructors i ON i.id = sc.instructor_id
        WHERE sc.id = $1`
	var detail models.ScheduledClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListStudentIDs returns the roster of a class.
func (r *ClassRepository) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	const query = `SELECT user_id FROM class_students WHERE class_id = $1 ORDER BY user_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return ids, nil
}

// CountStudents returns the current roster size.
func (r *ClassRepository) CountStudents(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_students WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count class roster: %w", err)
	}
	return count, nil
}

// AddStudents unions the given students into the class roster and upserts an
// in-progress enrollment for each newly added one, all inside a single
// transaction. Students already on the roster are skipped, and enrollments
// that progressed past NOT_STARTED keep their state. Returns the IDs that
// were actually added.
func (r *ClassRepository) AddStudents(ctx context.Context, classID, courseID string, studentIDs []string) ([]string, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin roster transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertRoster = `INSERT INTO class_students (class_id, user_id) VALUES ($1, $2) ON CONFLICT (class_id, user_id) DO NOTHING`
	const upsertEnrollment = `INSERT INTO enrollments (id, course_id, user_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        ON CONFLICT (course_id, user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
        WHERE enrollments.status = $6`

	added := make([]string, 0, len(studentIDs))
	now := time.Now().UTC()
	for _, studentID := range studentIDs {
		result, err := tx.ExecContext(ctx, insertRoster, classID, studentID)
		if err != nil {
			return nil, fmt.Errorf("add student %s to roster: %w", studentID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("check roster insert: %w", err)
		}
		if affected == 0 {
			continue
		}
		added = append(added, studentID)

		if _, err := tx.ExecContext(ctx, upsertEnrollment,
			uuid.NewString(), courseID, studentID,
			models.EnrollmentStatusInProgress, now, models.EnrollmentStatusNotStarted,
		); err != nil {
			return nil, fmt.Errorf("upsert enrollment for student %s: %w", studentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit roster transaction: %w", err)
	}
	return added, nil
}

// Create persists a new scheduled class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.ScheduledClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.Status == "" {
		class.Status = models.ClassStatusScheduled
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO scheduled_classes (id, course_id, instructor_id, starts_at, ends_at, location, location_url, capacity, status, created_at, updated_at)
        VALUES (:id, :course_id, :instructor_id, :starts_at, :ends_at, :location, :location_url, :capacity, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update persists mutable class fields.
func (r *ClassRepository) Update(ctx context.Context, class *models.ScheduledClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scheduled_classes SET course_id = :course_id, instructor_id = :instructor_id, starts_at = :starts_at,
        ends_at = :ends_at, location = :location, location_url = :location_url, capacity = :capacity, status = :status,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// UpdateStatus transitions the class status.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE scheduled_classes SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class status: %w", err)
	}
	return nil
}

// Delete removes a scheduled class and its roster rows.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_students WHERE class_id = $1`, id); err != nil {
		return fmt.Errorf("delete class roster: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return tx.Commit()
}
