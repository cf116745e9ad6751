package dulceria

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
)

// CatalogType is a server-owned product categorization. NumberOfProducts is
// computed server-side and drives the delete-vs-deactivate policy.
type CatalogType struct {
	ID               int    `json:"id,omitempty"`
	Description      string `json:"description"`
	Active           bool   `json:"active"`
	NumberOfProducts int    `json:"number_of_products,omitempty"`
}

// HasProducts reports whether any product references this type.
func (t *CatalogType) HasProducts() bool {
	return t.NumberOfProducts > 0
}

// RemovalNotice returns the confirmation text shown before removing the
// type: deactivation when products reference it, deletion otherwise.
func (t *CatalogType) RemovalNotice() string {
	if t.HasProducts() {
		return fmt.Sprintf(
			"Este tipo tiene %d producto(s) asociado(s). Se desactivará pero mantendrá la integridad de los datos.",
			t.NumberOfProducts,
		)
	}
	return "¿Estás seguro de que deseas eliminar este tipo de catálogo?"
}

// Catalog is a server-owned sellable product.
type Catalog struct {
	ID            int     `json:"id,omitempty"`
	IDCatalogType int     `json:"id_catalog_type"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Cost          float64 `json:"cost"`
	Discount      int     `json:"discount"`
	Active        bool    `json:"active"`
}

// FinalPrice is the display-only discounted price. It is computed locally
// and never sent to the server.
func (c *Catalog) FinalPrice() float64 {
	return CalculateFinalPrice(c.Cost, c.Discount)
}

// CalculateFinalPrice applies a percentage discount to a cost.
func CalculateFinalPrice(cost float64, discount int) float64 {
	discountAmount := (cost * float64(discount)) / 100
	return cost - discountAmount
}

// CatalogTypePayload is the request body for catalog-type writes.
type CatalogTypePayload struct {
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func (p CatalogTypePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Description,
			validation.Required.Error("La descripción es requerida"),
		),
	)
}

// CatalogPayload is the request body for catalog writes.
type CatalogPayload struct {
	IDCatalogType int     `json:"id_catalog_type"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Cost          float64 `json:"cost"`
	Discount      int     `json:"discount"`
	Active        bool    `json:"active"`
}

func (p CatalogPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.IDCatalogType,
			validation.Required.Error("El tipo de catálogo es requerido"),
		),
		validation.Field(&p.Name,
			validation.Required.Error("El nombre es requerido"),
		),
		validation.Field(&p.Cost,
			validation.Min(0.0).Error("El costo no puede ser negativo"),
		),
		validation.Field(&p.Discount,
			validation.Min(0).Error("El descuento debe estar entre 0 y 100"),
			validation.Max(100).Error("El descuento debe estar entre 0 y 100"),
		),
	)
}

// RegisterUserPayload is the request body for account registration.
type RegisterUserPayload struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p RegisterUserPayload) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.Required.Error("El nombre es requerido"),
		),
		validation.Field(&p.Lastname,
			validation.Required.Error("El apellido es requerido"),
		),
	); err != nil {
		return err
	}

	if err := ValidateEmail(p.Email); err != nil {
		return err
	}

	return ValidatePassword(p.Password)
}

// UserRecord is the server representation of a created account.
type UserRecord struct {
	ID       int    `json:"id,omitempty"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
}
