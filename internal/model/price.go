package model

// PriceTierCount is the number of regional price tiers per product
const PriceTierCount = 6

// PriceRow is a product joined with its price tiers. A tier is nil when the
// product has no price row yet. Field names match the columns the web client
// reads.
type PriceRow struct {
	CodPro   string   `json:"CodPro"`
	Nombre   string   `json:"Nombre"`
	PreTema1 *float64 `json:"PreTema1"`
	PreTema2 *float64 `json:"PreTema2"`
	PreTema3 *float64 `json:"PreTema3"`
	PreTema4 *float64 `json:"PreTema4"`
	PreTema5 *float64 `json:"PreTema5"`
	PreTema6 *float64 `json:"PreTema6"`
}

// PriceUpdate is the body of a price update request
type PriceUpdate struct {
	P1 *float64 `json:"p1" validate:"omitnil,gte=0"`
	P2 *float64 `json:"p2" validate:"omitnil,gte=0"`
	P3 *float64 `json:"p3" validate:"omitnil,gte=0"`
	P4 *float64 `json:"p4" validate:"omitnil,gte=0"`
	P5 *float64 `json:"p5" validate:"omitnil,gte=0"`
	P6 *float64 `json:"p6" validate:"omitnil,gte=0"`
}

// Tiers returns the update as an ordered tier array
func (u PriceUpdate) Tiers() [PriceTierCount]*float64 {
	return [PriceTierCount]*float64{u.P1, u.P2, u.P3, u.P4, u.P5, u.P6}
}

// Company price prefixes accepted by the pricing module
var ValidCompanies = map[string]bool{
	"02": true,
	"04": true,
	"06": true,
}

// ProductTypeSale is the Productos.Tipo value of products with editable prices
const ProductTypeSale = 3

// Product is a row of the product catalogue
type Product struct {
	CodPro    string `json:"CodPro" validate:"required,max=10"`
	Nombre    string `json:"Nombre" validate:"required"`
	Tipo      int    `json:"Tipo"`
	Eliminado bool   `json:"Eliminado"`
}
