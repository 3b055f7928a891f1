package mothers

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

type motherRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &motherRepoPG{pool: pool}
}

func (r *motherRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const motherCols = `id, first_name, last_name, date_of_birth, national_id,
	phone_number, alternate_phone, county, sub_county, ward, village,
	facility_name, registered_by, next_of_kin_name, next_of_kin_phone,
	next_of_kin_relationship, active, created_at, updated_at`

func scanMother(row pgx.Row) (*Mother, error) {
	var m Mother
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.DateOfBirth, &m.NationalID,
		&m.PhoneNumber, &m.AlternatePhone, &m.County, &m.SubCounty, &m.Ward, &m.Village,
		&m.FacilityName, &m.RegisteredBy, &m.NextOfKinName, &m.NextOfKinPhone,
		&m.NextOfKinRelationship, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *motherRepoPG) Create(ctx context.Context, m *Mother) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO mothers (id, first_name, last_name, date_of_birth, national_id,
			phone_number, alternate_phone, county, sub_county, ward, village,
			facility_name, registered_by, next_of_kin_name, next_of_kin_phone,
			next_of_kin_relationship, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		m.ID, m.FirstName, m.LastName, m.DateOfBirth, m.NationalID,
		m.PhoneNumber, m.AlternatePhone, m.County, m.SubCounty, m.Ward, m.Village,
		m.FacilityName, m.RegisteredBy, m.NextOfKinName, m.NextOfKinPhone,
		m.NextOfKinRelationship, m.Active)
	return err
}

func (r *motherRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Mother, error) {
	return scanMother(r.conn(ctx).QueryRow(ctx, `SELECT `+motherCols+` FROM mothers WHERE id = $1`, id))
}

func (r *motherRepoPG) GetByPhone(ctx context.Context, phone string) (*Mother, error) {
	return scanMother(r.conn(ctx).QueryRow(ctx, `SELECT `+motherCols+` FROM mothers WHERE phone_number = $1`, phone))
}

func (r *motherRepoPG) Update(ctx context.Context, m *Mother) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE mothers SET first_name=$2, last_name=$3, date_of_birth=$4, national_id=$5,
			phone_number=$6, alternate_phone=$7, county=$8, sub_county=$9, ward=$10,
			village=$11, facility_name=$12, next_of_kin_name=$13, next_of_kin_phone=$14,
			next_of_kin_relationship=$15, active=$16, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.FirstName, m.LastName, m.DateOfBirth, m.NationalID,
		m.PhoneNumber, m.AlternatePhone, m.County, m.SubCounty, m.Ward,
		m.Village, m.FacilityName, m.NextOfKinName, m.NextOfKinPhone,
		m.NextOfKinRelationship, m.Active)
	return err
}

func (r *motherRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM mothers WHERE id = $1`, id)
	return err
}

func (r *motherRepoPG) List(ctx context.Context, limit, offset int) ([]*Mother, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM mothers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+motherCols+` FROM mothers ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Mother
	for rows.Next() {
		m, err := scanMother(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *motherRepoPG) ListByCounty(ctx context.Context, county string, limit, offset int) ([]*Mother, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM mothers WHERE county = $1`, county).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+motherCols+` FROM mothers WHERE county = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, county, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Mother
	for rows.Next() {
		m, err := scanMother(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}
