package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de lectura de empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, tax_id, address, phone, email, created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.TaxID, &c.Address, &c.Phone, &c.Email,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de empresa inválido", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// GetVATSettings lee los porcentajes de IVA de la empresa; NULL = no configurado.
func (r *CompanyRepo) GetVATSettings(ctx context.Context, companyID string) (*entity.VATSettings, error) {
	query := `SELECT labor_vat_pct, material_vat_pct FROM companies WHERE id = $1`
	var labor, material decimal.NullDecimal
	err := r.q.QueryRow(ctx, query, companyID).Scan(&labor, &material)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de empresa inválido", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get company VAT settings: %w", err)
	}
	settings := &entity.VATSettings{CompanyID: companyID}
	if labor.Valid {
		settings.LaborVATPct = &labor.Decimal
	}
	if material.Valid {
		settings.MaterialVATPct = &material.Decimal
	}
	return settings, nil
}
