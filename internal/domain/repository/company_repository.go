package repository

import (
	"context"

	"github.com/jhoicas/fieldbill/internal/domain/entity"
)

// CompanyRepository define el puerto de lectura de empresas y su configuración de IVA.
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	// GetVATSettings retorna (nil, nil) si la empresa no existe.
	GetVATSettings(ctx context.Context, companyID string) (*entity.VATSettings, error)
}
