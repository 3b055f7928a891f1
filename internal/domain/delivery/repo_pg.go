package delivery

import (
	"context"

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

// =========== Delivery Repository ===========

type deliveryRepoPG struct{ pool *pgxpool.Pool }

func NewDeliveryRepoPG(pool *pgxpool.Pool) DeliveryRepository {
	return &deliveryRepoPG{pool: pool}
}

func (r *deliveryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const deliveryCols = `id, pregnancy_id, delivery_date, delivery_time, delivery_type,
	delivery_outcome, number_of_babies, mother_condition, complications, blood_loss_ml,
	placenta_complete, placenta_weight_grams, facility_name, attended_by, notes,
	created_at, updated_at`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(&d.ID, &d.PregnancyID, &d.DeliveryDate, &d.DeliveryTime, &d.DeliveryType,
		&d.DeliveryOutcome, &d.NumberOfBabies, &d.MotherCondition, &d.Complications,
		&d.BloodLossML, &d.PlacentaComplete, &d.PlacentaWeightGrams, &d.FacilityName,
		&d.AttendedBy, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *deliveryRepoPG) Create(ctx context.Context, d *Delivery) (bool, error) {
	d.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO deliveries (id, pregnancy_id, delivery_date, delivery_time,
			delivery_type, delivery_outcome, number_of_babies, mother_condition,
			complications, blood_loss_ml, placenta_complete, placenta_weight_grams,
			facility_name, attended_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (pregnancy_id) DO NOTHING`,
		d.ID, d.PregnancyID, d.DeliveryDate, d.DeliveryTime, d.DeliveryType,
		d.DeliveryOutcome, d.NumberOfBabies, d.MotherCondition, d.Complications,
		d.BloodLossML, d.PlacentaComplete, d.PlacentaWeightGrams, d.FacilityName,
		d.AttendedBy, d.Notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *deliveryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	return scanDelivery(r.conn(ctx).QueryRow(ctx, `SELECT `+deliveryCols+` FROM deliveries WHERE id = $1`, id))
}

func (r *deliveryRepoPG) GetByPregnancy(ctx context.Context, pregnancyID uuid.UUID) (*Delivery, error) {
	return scanDelivery(r.conn(ctx).QueryRow(ctx,
		`SELECT `+deliveryCols+` FROM deliveries WHERE pregnancy_id = $1`, pregnancyID))
}

func (r *deliveryRepoPG) Update(ctx context.Context, d *Delivery) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE deliveries SET delivery_date=$2, delivery_time=$3, delivery_type=$4,
			delivery_outcome=$5, number_of_babies=$6, mother_condition=$7,
			complications=$8, blood_loss_ml=$9, placenta_complete=$10,
			placenta_weight_grams=$11, facility_name=$12, attended_by=$13, notes=$14,
			updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.DeliveryDate, d.DeliveryTime, d.DeliveryType, d.DeliveryOutcome,
		d.NumberOfBabies, d.MotherCondition, d.Complications, d.BloodLossML,
		d.PlacentaComplete, d.PlacentaWeightGrams, d.FacilityName, d.AttendedBy, d.Notes)
	return err
}

func (r *deliveryRepoPG) List(ctx context.Context, limit, offset int) ([]*Delivery, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM deliveries`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+deliveryCols+` FROM deliveries ORDER BY delivery_date DESC, delivery_time DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

// =========== Baby Repository ===========

type babyRepoPG struct{ pool *pgxpool.Pool }

func NewBabyRepoPG(pool *pgxpool.Pool) BabyRepository {
	return &babyRepoPG{pool: pool}
}

func (r *babyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const babyCols = `id, delivery_id, mother_id, first_name, middle_name, last_name,
	gender, birth_date, birth_weight_grams, birth_length_cm, head_circumference_cm,
	apgar_score_1min, apgar_score_5min, birth_order, health_condition, complications,
	required_resuscitation, birth_notification_number, facility_name, created_at, updated_at`

func scanBaby(row pgx.Row) (*Baby, error) {
	var b Baby
	err := row.Scan(&b.ID, &b.DeliveryID, &b.MotherID, &b.FirstName, &b.MiddleName,
		&b.LastName, &b.Gender, &b.BirthDate, &b.BirthWeightGrams, &b.BirthLengthCM,
		&b.HeadCircumferenceCM, &b.ApgarScore1Min, &b.ApgarScore5Min, &b.BirthOrder,
		&b.HealthCondition, &b.Complications, &b.RequiredResuscitation,
		&b.BirthNotificationNumber, &b.FacilityName, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *babyRepoPG) Create(ctx context.Context, b *Baby) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO babies (id, delivery_id, mother_id, first_name, middle_name,
			last_name, gender, birth_date, birth_weight_grams, birth_length_cm,
			head_circumference_cm, apgar_score_1min, apgar_score_5min, birth_order,
			health_condition, complications, required_resuscitation,
			birth_notification_number, facility_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		b.ID, b.DeliveryID, b.MotherID, b.FirstName, b.MiddleName, b.LastName,
		b.Gender, b.BirthDate, b.BirthWeightGrams, b.BirthLengthCM,
		b.HeadCircumferenceCM, b.ApgarScore1Min, b.ApgarScore5Min, b.BirthOrder,
		b.HealthCondition, b.Complications, b.RequiredResuscitation,
		b.BirthNotificationNumber, b.FacilityName)
	return err
}

func (r *babyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Baby, error) {
	return scanBaby(r.conn(ctx).QueryRow(ctx, `SELECT `+babyCols+` FROM babies WHERE id = $1`, id))
}

func (r *babyRepoPG) Update(ctx context.Context, b *Baby) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE babies SET first_name=$2, middle_name=$3, last_name=$4, gender=$5,
			birth_weight_grams=$6, birth_length_cm=$7, head_circumference_cm=$8,
			apgar_score_1min=$9, apgar_score_5min=$10, birth_order=$11,
			health_condition=$12, complications=$13, required_resuscitation=$14,
			birth_notification_number=$15, facility_name=$16, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.FirstName, b.MiddleName, b.LastName, b.Gender, b.BirthWeightGrams,
		b.BirthLengthCM, b.HeadCircumferenceCM, b.ApgarScore1Min, b.ApgarScore5Min,
		b.BirthOrder, b.HealthCondition, b.Complications, b.RequiredResuscitation,
		b.BirthNotificationNumber, b.FacilityName)
	return err
}

func (r *babyRepoPG) ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]*Baby, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+babyCols+` FROM babies WHERE delivery_id = $1 ORDER BY birth_order`, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBabies(rows)
}

func (r *babyRepoPG) ListByMother(ctx context.Context, motherID uuid.UUID) ([]*Baby, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+babyCols+` FROM babies WHERE mother_id = $1 ORDER BY birth_date DESC, birth_order`, motherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBabies(rows)
}

func (r *babyRepoPG) List(ctx context.Context, limit, offset int) ([]*Baby, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM babies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+babyCols+` FROM babies ORDER BY birth_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectBabies(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collectBabies(rows pgx.Rows) ([]*Baby, error) {
	var items []*Baby
	for rows.Next() {
		b, err := scanBaby(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
