package reminders

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

// =========== Template Repository ===========

type templateRepoPG struct{ pool *pgxpool.Pool }

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

func (r *templateRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const templateCols = `id, kind, name, message_template, days_before, send_time,
	active, description, created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Kind, &t.Name, &t.MessageTemplate, &t.DaysBefore,
		&t.SendTime, &t.Active, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *templateRepoPG) Upsert(ctx context.Context, t *Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reminder_templates (id, kind, name, message_template, days_before,
			send_time, active, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (kind) DO UPDATE SET
			name = EXCLUDED.name,
			message_template = EXCLUDED.message_template,
			days_before = EXCLUDED.days_before,
			send_time = EXCLUDED.send_time,
			active = EXCLUDED.active,
			description = EXCLUDED.description,
			updated_at = NOW()`,
		t.ID, t.Kind, t.Name, t.MessageTemplate, t.DaysBefore, t.SendTime, t.Active, t.Description)
	return err
}

func (r *templateRepoPG) GetActiveByKind(ctx context.Context, kind string) (*Template, error) {
	return scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM reminder_templates WHERE kind = $1 AND active`, kind))
}

func (r *templateRepoPG) List(ctx context.Context) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+templateCols+` FROM reminder_templates ORDER BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *templateRepoPG) Update(ctx context.Context, t *Template) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE reminder_templates SET name=$2, message_template=$3, days_before=$4,
			send_time=$5, active=$6, description=$7, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.MessageTemplate, t.DaysBefore, t.SendTime, t.Active, t.Description)
	return err
}

// =========== Sent Reminder Repository ===========

type sentRepoPG struct{ pool *pgxpool.Pool }

func NewSentRepoPG(pool *pgxpool.Pool) SentRepository {
	return &sentRepoPG{pool: pool}
}

func (r *sentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const sentCols = `id, mother_id, phone_number, kind, message_content, template_id,
	pregnancy_id, visit_id, baby_id, immunization_id, scheduled_at, sent_at,
	delivered_at, delivery_status, gateway_response, gateway_message_id,
	retry_count, max_retries, next_retry_at, facility_name, is_manual,
	created_at, updated_at`

func scanSent(row pgx.Row) (*SentReminder, error) {
	var s SentReminder
	err := row.Scan(&s.ID, &s.MotherID, &s.PhoneNumber, &s.Kind, &s.MessageContent,
		&s.TemplateID, &s.PregnancyID, &s.VisitID, &s.BabyID, &s.ImmunizationID,
		&s.ScheduledAt, &s.SentAt, &s.DeliveredAt, &s.DeliveryStatus,
		&s.GatewayResponse, &s.GatewayMessageID, &s.RetryCount, &s.MaxRetries,
		&s.NextRetryAt, &s.FacilityName, &s.IsManual, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sentRepoPG) Create(ctx context.Context, s *SentReminder) error {
	s.ID = uuid.New()
	if s.DeliveryStatus == "" {
		s.DeliveryStatus = StatusPending
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO sent_reminders (id, mother_id, phone_number, kind, message_content,
			template_id, pregnancy_id, visit_id, baby_id, immunization_id, scheduled_at,
			delivery_status, retry_count, max_retries, facility_name, is_manual)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		s.ID, s.MotherID, s.PhoneNumber, s.Kind, s.MessageContent, s.TemplateID,
		s.PregnancyID, s.VisitID, s.BabyID, s.ImmunizationID, s.ScheduledAt,
		s.DeliveryStatus, s.RetryCount, s.MaxRetries, s.FacilityName, s.IsManual)
	return err
}

func (r *sentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SentReminder, error) {
	return scanSent(r.conn(ctx).QueryRow(ctx, `SELECT `+sentCols+` FROM sent_reminders WHERE id = $1`, id))
}

func (r *sentRepoPG) GetByGatewayMessageID(ctx context.Context, messageID string) (*SentReminder, error) {
	return scanSent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sentCols+` FROM sent_reminders WHERE gateway_message_id = $1`, messageID))
}

func (r *sentRepoPG) Update(ctx context.Context, s *SentReminder) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE sent_reminders SET sent_at=$2, delivered_at=$3, delivery_status=$4,
			gateway_response=$5, gateway_message_id=$6, retry_count=$7,
			next_retry_at=$8, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.SentAt, s.DeliveredAt, s.DeliveryStatus, s.GatewayResponse,
		s.GatewayMessageID, s.RetryCount, s.NextRetryAt)
	return err
}

func (r *sentRepoPG) List(ctx context.Context, motherID uuid.UUID, status string, limit, offset int) ([]*SentReminder, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR mother_id = $1) AND ($2 = '' OR delivery_status = $2)`
	var motherArg any
	if motherID != uuid.Nil {
		motherArg = motherID
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sent_reminders`+where, motherArg, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sentCols+` FROM sent_reminders`+where+` ORDER BY scheduled_at DESC LIMIT $3 OFFSET $4`,
		motherArg, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectSent(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *sentRepoPG) ExistsForRef(ctx context.Context, kind string, ref uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sent_reminders
			WHERE kind = $1 AND (visit_id = $2 OR immunization_id = $2 OR pregnancy_id = $2)
		)`, kind, ref).Scan(&exists)
	return exists, err
}

func (r *sentRepoPG) ExistsForRefSince(ctx context.Context, kind string, ref uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sent_reminders
			WHERE kind = $1 AND (visit_id = $2 OR immunization_id = $2 OR pregnancy_id = $2)
			  AND created_at >= $3
		)`, kind, ref, since).Scan(&exists)
	return exists, err
}

func (r *sentRepoPG) ListPending(ctx context.Context, before time.Time) ([]*SentReminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sentCols+` FROM sent_reminders
		WHERE delivery_status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at`, StatusPending, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSent(rows)
}

func (r *sentRepoPG) ListRetryable(ctx context.Context, now time.Time) ([]*SentReminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sentCols+` FROM sent_reminders
		WHERE delivery_status = $1 AND retry_count < max_retries
		  AND next_retry_at IS NOT NULL AND next_retry_at <= $2
		ORDER BY next_retry_at`, StatusFailed, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSent(rows)
}

func (r *sentRepoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT delivery_status, COUNT(*) FROM sent_reminders GROUP BY delivery_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *sentRepoPG) CountByKind(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT kind, COUNT(*) FROM sent_reminders GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		counts[kind] = count
	}
	return counts, rows.Err()
}

func collectSent(rows pgx.Rows) ([]*SentReminder, error) {
	var items []*SentReminder
	for rows.Next() {
		s, err := scanSent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// =========== Candidate Repository ===========

type candidateRepoPG struct{ pool *pgxpool.Pool }

func NewCandidateRepoPG(pool *pgxpool.Pool) CandidateRepository {
	return &candidateRepoPG{pool: pool}
}

func (r *candidateRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const visitCandidateQuery = `
	SELECT v.id, v.visit_number, v.scheduled_date, p.id, m.id, m.first_name,
	       m.phone_number, m.facility_name
	FROM anc_visits v
	JOIN pregnancies p ON p.id = v.pregnancy_id
	JOIN mothers m ON m.id = p.mother_id
	WHERE p.status = 'ACTIVE'`

func collectVisitCandidates(rows pgx.Rows) ([]*VisitCandidate, error) {
	var items []*VisitCandidate
	for rows.Next() {
		var c VisitCandidate
		if err := rows.Scan(&c.VisitID, &c.VisitNumber, &c.ScheduledDate, &c.PregnancyID,
			&c.MotherID, &c.FirstName, &c.PhoneNumber, &c.FacilityName); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

func (r *candidateRepoPG) ANCVisitsOn(ctx context.Context, day time.Time) ([]*VisitCandidate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		visitCandidateQuery+` AND v.attended = FALSE AND v.missed = FALSE AND v.scheduled_date = $1`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisitCandidates(rows)
}

func (r *candidateRepoPG) MissedANCVisits(ctx context.Context) ([]*VisitCandidate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		visitCandidateQuery+` AND v.missed = TRUE AND v.attended = FALSE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisitCandidates(rows)
}

func (r *candidateRepoPG) DangerSignVisits(ctx context.Context) ([]*VisitCandidate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		visitCandidateQuery+` AND v.attended = TRUE AND v.has_danger_signs = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisitCandidates(rows)
}

const doseCandidateQuery = `
	SELECT s.id, vt.name, s.scheduled_date, b.id,
	       COALESCE(NULLIF(b.first_name, ''), CASE b.gender WHEN 'F' THEN 'Baby Girl' ELSE 'Baby Boy' END),
	       m.id, m.first_name, m.phone_number, m.facility_name
	FROM immunization_schedules s
	JOIN vaccine_types vt ON vt.id = s.vaccine_id
	JOIN babies b ON b.id = s.baby_id
	JOIN mothers m ON m.id = b.mother_id`

func collectDoseCandidates(rows pgx.Rows) ([]*DoseCandidate, error) {
	var items []*DoseCandidate
	for rows.Next() {
		var c DoseCandidate
		if err := rows.Scan(&c.ScheduleID, &c.VaccineName, &c.ScheduledDate, &c.BabyID,
			&c.BabyName, &c.MotherID, &c.FirstName, &c.PhoneNumber, &c.FacilityName); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

func (r *candidateRepoPG) DosesOn(ctx context.Context, day time.Time) ([]*DoseCandidate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		doseCandidateQuery+` WHERE s.administered = FALSE AND s.missed = FALSE AND s.scheduled_date = $1`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoseCandidates(rows)
}

func (r *candidateRepoPG) MissedDoses(ctx context.Context) ([]*DoseCandidate, error) {
	rows, err := r.conn(ctx).Query(ctx,
		doseCandidateQuery+` WHERE s.missed = TRUE AND s.administered = FALSE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDoseCandidates(rows)
}

func (r *candidateRepoPG) PregnanciesAtWeeks(ctx context.Context, day time.Time, minWeeks int) ([]*PregnancyCandidate, error) {
	cutoff := day.AddDate(0, 0, -minWeeks*7)
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, m.id, m.first_name, m.phone_number, m.facility_name, p.lmp, p.edd
		FROM pregnancies p
		JOIN mothers m ON m.id = p.mother_id
		WHERE p.status = 'ACTIVE' AND p.lmp IS NOT NULL AND p.lmp <= $1
		ORDER BY p.lmp`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PregnancyCandidate
	for rows.Next() {
		var c PregnancyCandidate
		if err := rows.Scan(&c.PregnancyID, &c.MotherID, &c.FirstName, &c.PhoneNumber,
			&c.FacilityName, &c.LMP, &c.EDD); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}
