package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company representa una organización/tenant del sistema.
type Company struct {
	ID        string
	Name      string
	TaxID     string
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VATSettings porcentajes de IVA configurados por la empresa.
// Un valor nil significa "no configurado" y se usa el valor por defecto de la aplicación.
type VATSettings struct {
	CompanyID      string
	LaborVATPct    *decimal.Decimal
	MaterialVATPct *decimal.Decimal
}
