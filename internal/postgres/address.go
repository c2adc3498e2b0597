package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/vatcheck/internal/address"
	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AddressRecord is a stored address.
type AddressRecord struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID string          `json:"customer_id"`
	Address    address.Address `json:"address"`
	CreatedAt  time.Time       `json:"created_at"`
}

// VAT returns the decoded VAT number of the record.
func (r *AddressRecord) VAT() vat.Number {
	return vat.DecodeLegacy(r.Address.VATNumber)
}

// AddressStore persists addresses. The VAT number is stored in its legacy
// single-string form.
type AddressStore struct {
	db  DB
	now func() time.Time
}

// NewAddressStore creates an AddressStore.
func NewAddressStore(db DB) *AddressStore {
	return &AddressStore{db: db, now: time.Now}
}

const addressColumns = `id, customer_id, type, full_name, company, address_line1, address_line2,
       city, state, postal_code, country, phone, vat_number, created_at`

// Create stores addr for a customer.
func (s *AddressStore) Create(ctx context.Context, customerID string, addr address.Address) (*AddressRecord, error) {
	const op = "address.create"
	const q = `
INSERT INTO addresses (` + addressColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + addressColumns

	rec, err := scanAddress(s.db.QueryRow(ctx, q,
		uuid.New(),
		customerID,
		addr.Type,
		addr.FullName,
		addr.Company,
		addr.AddressLine1,
		addr.AddressLine2,
		addr.City,
		addr.State,
		addr.PostalCode,
		addr.Country,
		addr.Phone,
		vat.DecodeLegacy(addr.VATNumber).Legacy(),
		s.now().UTC(),
	))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to save address")
	}
	return rec, nil
}

// Get returns the address with the given ID.
func (s *AddressStore) Get(ctx context.Context, id uuid.UUID) (*AddressRecord, error) {
	const op = "address.get"
	const q = `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	rec, err := scanAddress(s.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound(op, "address", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load address")
	}
	return rec, nil
}

// ListByCustomer returns a customer's addresses, oldest first.
func (s *AddressStore) ListByCustomer(ctx context.Context, customerID string) ([]AddressRecord, error) {
	const op = "address.list"
	const q = `SELECT ` + addressColumns + ` FROM addresses WHERE customer_id = $1 ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, q, customerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list addresses")
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AddressRecord, error) {
		rec, err := scanAddress(row)
		if err != nil {
			return AddressRecord{}, err
		}
		return *rec, nil
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read addresses")
	}
	return records, nil
}

func scanAddress(row pgx.Row) (*AddressRecord, error) {
	var rec AddressRecord
	a := &rec.Address
	err := row.Scan(
		&rec.ID,
		&rec.CustomerID,
		&a.Type,
		&a.FullName,
		&a.Company,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.Phone,
		&a.VATNumber,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
