package pregnancy

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

// =========== Pregnancy Repository ===========

type pregnancyRepoPG struct{ pool *pgxpool.Pool }

func NewPregnancyRepoPG(pool *pgxpool.Pool) PregnancyRepository {
	return &pregnancyRepoPG{pool: pool}
}

func (r *pregnancyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const pregCols = `id, mother_id, gravida, parity, lmp, edd, risk_level, risk_factors,
	status, previous_csection, previous_complications, notes, created_at, updated_at`

// nullDate maps a zero time to SQL NULL so an unknown LMP or EDD is stored
// as absent rather than 0001-01-01.
func nullDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func scanPregnancy(row pgx.Row) (*Pregnancy, error) {
	var p Pregnancy
	var lmp, edd *time.Time
	err := row.Scan(&p.ID, &p.MotherID, &p.Gravida, &p.Parity, &lmp, &edd,
		&p.RiskLevel, &p.RiskFactors, &p.Status, &p.PreviousCSection,
		&p.PreviousComplications, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if lmp != nil {
		p.LMP = *lmp
	}
	if edd != nil {
		p.EDD = *edd
	}
	return &p, err
}

func (r *pregnancyRepoPG) Create(ctx context.Context, p *Pregnancy) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pregnancies (id, mother_id, gravida, parity, lmp, edd, risk_level,
			risk_factors, status, previous_csection, previous_complications, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.MotherID, p.Gravida, p.Parity, nullDate(p.LMP), nullDate(p.EDD), p.RiskLevel,
		p.RiskFactors, p.Status, p.PreviousCSection, p.PreviousComplications, p.Notes)
	return err
}

func (r *pregnancyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pregnancy, error) {
	return scanPregnancy(r.conn(ctx).QueryRow(ctx, `SELECT `+pregCols+` FROM pregnancies WHERE id = $1`, id))
}

func (r *pregnancyRepoPG) GetActiveByMother(ctx context.Context, motherID uuid.UUID) (*Pregnancy, error) {
	return scanPregnancy(r.conn(ctx).QueryRow(ctx,
		`SELECT `+pregCols+` FROM pregnancies WHERE mother_id = $1 AND status = $2`,
		motherID, StatusActive))
}

func (r *pregnancyRepoPG) Update(ctx context.Context, p *Pregnancy) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE pregnancies SET gravida=$2, parity=$3, lmp=$4, edd=$5, risk_level=$6,
			risk_factors=$7, status=$8, previous_csection=$9, previous_complications=$10,
			notes=$11, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Gravida, p.Parity, nullDate(p.LMP), nullDate(p.EDD), p.RiskLevel,
		p.RiskFactors, p.Status, p.PreviousCSection, p.PreviousComplications, p.Notes)
	return err
}

func (r *pregnancyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM pregnancies WHERE id = $1`, id)
	return err
}

func (r *pregnancyRepoPG) List(ctx context.Context, limit, offset int) ([]*Pregnancy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pregnancies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+pregCols+` FROM pregnancies ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Pregnancy
	for rows.Next() {
		p, err := scanPregnancy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *pregnancyRepoPG) ListByMother(ctx context.Context, motherID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pregnancies WHERE mother_id = $1`, motherID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+pregCols+` FROM pregnancies WHERE mother_id = $1 ORDER BY gravida DESC LIMIT $2 OFFSET $3`, motherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Pregnancy
	for rows.Next() {
		p, err := scanPregnancy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== ANC Visit Repository ===========

type visitRepoPG struct{ pool *pgxpool.Pool }

func NewVisitRepoPG(pool *pgxpool.Pool) VisitRepository {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const visitCols = `id, pregnancy_id, visit_number, scheduled_date, attended,
	attendance_date, missed, weight_kg, blood_pressure, hemoglobin,
	fundal_height_cm, fetal_heartbeat, has_danger_signs, danger_signs_note,
	iron_given, folic_acid_given, deworming_done, tetanus_given,
	clinical_notes, next_visit_date, created_at, updated_at`

func scanVisit(row pgx.Row) (*ANCVisit, error) {
	var v ANCVisit
	err := row.Scan(&v.ID, &v.PregnancyID, &v.VisitNumber, &v.ScheduledDate, &v.Attended,
		&v.AttendanceDate, &v.Missed, &v.WeightKG, &v.BloodPressure, &v.Hemoglobin,
		&v.FundalHeightCM, &v.FetalHeartbeat, &v.HasDangerSigns, &v.DangerSignsNote,
		&v.IronGiven, &v.FolicAcidGiven, &v.DewormingDone, &v.TetanusGiven,
		&v.ClinicalNotes, &v.NextVisitDate, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *visitRepoPG) CreateIfAbsent(ctx context.Context, v *ANCVisit) (bool, error) {
	v.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO anc_visits (id, pregnancy_id, visit_number, scheduled_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pregnancy_id, visit_number) DO NOTHING`,
		v.ID, v.PregnancyID, v.VisitNumber, v.ScheduledDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *visitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ANCVisit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM anc_visits WHERE id = $1`, id))
}

func (r *visitRepoPG) ListByPregnancy(ctx context.Context, pregnancyID uuid.UUID) ([]*ANCVisit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM anc_visits WHERE pregnancy_id = $1 ORDER BY visit_number`, pregnancyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ANCVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *visitRepoPG) RecordAttendance(ctx context.Context, v *ANCVisit) (bool, error) {
	// The attended = FALSE guard makes double completion a no-op at the
	// store level, whatever order racing writers arrive in.
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE anc_visits SET attended = TRUE, attendance_date = $2, weight_kg = $3,
			blood_pressure = $4, hemoglobin = $5, fundal_height_cm = $6,
			fetal_heartbeat = $7, has_danger_signs = $8, danger_signs_note = $9,
			iron_given = $10, folic_acid_given = $11, deworming_done = $12,
			tetanus_given = $13, clinical_notes = $14, next_visit_date = $15,
			updated_at = NOW()
		WHERE id = $1 AND attended = FALSE`,
		v.ID, v.AttendanceDate, v.WeightKG, v.BloodPressure, v.Hemoglobin,
		v.FundalHeightCM, v.FetalHeartbeat, v.HasDangerSigns, v.DangerSignsNote,
		v.IronGiven, v.FolicAcidGiven, v.DewormingDone, v.TetanusGiven,
		v.ClinicalNotes, v.NextVisitDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *visitRepoPG) ListUnresolvedBefore(ctx context.Context, cutoff time.Time) ([]*ANCVisit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+prefixVisitCols("v")+`
		FROM anc_visits v
		JOIN pregnancies p ON p.id = v.pregnancy_id
		WHERE v.attended = FALSE AND v.missed = FALSE
		  AND v.scheduled_date <= $1 AND p.status = $2
		ORDER BY v.scheduled_date`, cutoff, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ANCVisit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *visitRepoPG) MarkMissed(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE anc_visits SET missed = TRUE, updated_at = NOW() WHERE id = $1 AND attended = FALSE`, id)
	return err
}

func prefixVisitCols(alias string) string {
	return alias + ".id, " + alias + ".pregnancy_id, " + alias + ".visit_number, " +
		alias + ".scheduled_date, " + alias + ".attended, " + alias + ".attendance_date, " +
		alias + ".missed, " + alias + ".weight_kg, " + alias + ".blood_pressure, " +
		alias + ".hemoglobin, " + alias + ".fundal_height_cm, " + alias + ".fetal_heartbeat, " +
		alias + ".has_danger_signs, " + alias + ".danger_signs_note, " + alias + ".iron_given, " +
		alias + ".folic_acid_given, " + alias + ".deworming_done, " + alias + ".tetanus_given, " +
		alias + ".clinical_notes, " + alias + ".next_visit_date, " + alias + ".created_at, " +
		alias + ".updated_at"
}
