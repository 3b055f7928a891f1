package immunization

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afyamama/afyamama/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Vaccine Repository ===========

type vaccineRepoPG struct{ pool *pgxpool.Pool }

func NewVaccineRepoPG(pool *pgxpool.Pool) VaccineRepository {
	return &vaccineRepoPG{pool: pool}
}

func (r *vaccineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const vaccineCols = `id, name, description, recommended_age_weeks, route, site,
	dosage, active, created_at, updated_at`

func scanVaccine(row pgx.Row) (*VaccineType, error) {
	var v VaccineType
	err := row.Scan(&v.ID, &v.Name, &v.Description, &v.RecommendedAgeWeeks,
		&v.Route, &v.Site, &v.Dosage, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *vaccineRepoPG) CreateIfAbsent(ctx context.Context, v *VaccineType) (bool, error) {
	v.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vaccine_types (id, name, description, recommended_age_weeks,
			route, site, dosage, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (name) DO NOTHING`,
		v.ID, v.Name, v.Description, v.RecommendedAgeWeeks, v.Route, v.Site, v.Dosage, v.Active)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *vaccineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*VaccineType, error) {
	return scanVaccine(r.conn(ctx).QueryRow(ctx, `SELECT `+vaccineCols+` FROM vaccine_types WHERE id = $1`, id))
}

func (r *vaccineRepoPG) GetByName(ctx context.Context, name string) (*VaccineType, error) {
	return scanVaccine(r.conn(ctx).QueryRow(ctx, `SELECT `+vaccineCols+` FROM vaccine_types WHERE name = $1`, name))
}

func (r *vaccineRepoPG) ListActive(ctx context.Context) ([]*VaccineType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+vaccineCols+` FROM vaccine_types WHERE active ORDER BY recommended_age_weeks, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*VaccineType
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *vaccineRepoPG) Update(ctx context.Context, v *VaccineType) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE vaccine_types SET description=$2, recommended_age_weeks=$3, route=$4,
			site=$5, dosage=$6, active=$7, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.Description, v.RecommendedAgeWeeks, v.Route, v.Site, v.Dosage, v.Active)
	return err
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

func (r *scheduleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const scheduleCols = `s.id, s.baby_id, s.vaccine_id, v.name, s.scheduled_date,
	s.administered, s.administered_date, s.missed, s.batch_number, s.administered_by,
	s.reactions, s.facility_name, s.created_at, s.updated_at`

const scheduleFrom = ` FROM immunization_schedules s JOIN vaccine_types v ON v.id = s.vaccine_id`

func scanSchedule(row pgx.Row) (*ImmunizationSchedule, error) {
	var s ImmunizationSchedule
	err := row.Scan(&s.ID, &s.BabyID, &s.VaccineID, &s.VaccineName, &s.ScheduledDate,
		&s.Administered, &s.AdministeredDate, &s.Missed, &s.BatchNumber,
		&s.AdministeredBy, &s.Reactions, &s.FacilityName, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *scheduleRepoPG) CreateIfAbsent(ctx context.Context, s *ImmunizationSchedule) (bool, error) {
	s.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO immunization_schedules (id, baby_id, vaccine_id, scheduled_date, facility_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (baby_id, vaccine_id) DO NOTHING`,
		s.ID, s.BabyID, s.VaccineID, s.ScheduledDate, s.FacilityName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ImmunizationSchedule, error) {
	return scanSchedule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+scheduleCols+scheduleFrom+` WHERE s.id = $1`, id))
}

func (r *scheduleRepoPG) ListByBaby(ctx context.Context, babyID uuid.UUID) ([]*ImmunizationSchedule, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+scheduleCols+scheduleFrom+` WHERE s.baby_id = $1 ORDER BY s.scheduled_date, v.name`, babyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *scheduleRepoPG) RecordAdministration(ctx context.Context, s *ImmunizationSchedule) (bool, error) {
	// Guarded the same way visit attendance is: a second writer hits zero
	// rows instead of overwriting the first record.
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE immunization_schedules SET administered = TRUE, administered_date = $2,
			batch_number = $3, administered_by = $4, reactions = $5, updated_at = NOW()
		WHERE id = $1 AND administered = FALSE`,
		s.ID, s.AdministeredDate, s.BatchNumber, s.AdministeredBy, s.Reactions)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *scheduleRepoPG) ListUnresolvedBefore(ctx context.Context, cutoff time.Time) ([]*ImmunizationSchedule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleCols+scheduleFrom+`
		WHERE s.administered = FALSE AND s.missed = FALSE AND s.scheduled_date <= $1
		ORDER BY s.scheduled_date`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *scheduleRepoPG) MarkMissed(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE immunization_schedules SET missed = TRUE, updated_at = NOW() WHERE id = $1 AND administered = FALSE`, id)
	return err
}

func (r *scheduleRepoPG) ListDueOn(ctx context.Context, day time.Time) ([]*ImmunizationSchedule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleCols+scheduleFrom+`
		WHERE s.administered = FALSE AND s.scheduled_date = $1
		ORDER BY v.name`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func collectSchedules(rows pgx.Rows) ([]*ImmunizationSchedule, error) {
	var items []*ImmunizationSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
