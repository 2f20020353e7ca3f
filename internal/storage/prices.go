package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Odenfis/sedimApp/internal/model"
)

// ListPrices returns the active sale products whose code starts with company,
// each with its price tiers, ordered by name. Tiers are nil for products
// without a Precios row.
func (ss *SQLiteStorage) ListPrices(ctx context.Context, company string) ([]model.PriceRow, error) {
	if !model.ValidCompanies[company] {
		return nil, ErrInvalidCompany
	}

	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx, `
		SELECT p.CodPro, p.Nombre,
		       pr.PreTema1, pr.PreTema2, pr.PreTema3,
		       pr.PreTema4, pr.PreTema5, pr.PreTema6
		FROM Productos p
		LEFT JOIN Precios pr ON p.CodPro = pr.Codpro
		WHERE p.Tipo = ?
		  AND p.CodPro LIKE ? || '%'
		  AND p.Eliminado = 0
		ORDER BY p.Nombre ASC
	`, model.ProductTypeSale, company)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	result := []model.PriceRow{}
	for rows.Next() {
		var row model.PriceRow
		var tiers [model.PriceTierCount]sql.NullFloat64
		if err := rows.Scan(&row.CodPro, &row.Nombre,
			&tiers[0], &tiers[1], &tiers[2], &tiers[3], &tiers[4], &tiers[5]); err != nil {
			return nil, fmt.Errorf("scanning price row: %w", err)
		}
		row.PreTema1 = nullFloat(tiers[0])
		row.PreTema2 = nullFloat(tiers[1])
		row.PreTema3 = nullFloat(tiers[2])
		row.PreTema4 = nullFloat(tiers[3])
		row.PreTema5 = nullFloat(tiers[4])
		row.PreTema6 = nullFloat(tiers[5])
		result = append(result, row)
	}
	return result, rows.Err()
}

// UpsertPrices writes all six tiers of codpro, inserting the Precios row when
// it does not exist yet. A nil tier is stored as NULL.
func (ss *SQLiteStorage) UpsertPrices(ctx context.Context, codpro string, tiers [model.PriceTierCount]*float64) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	args := make([]any, 0, model.PriceTierCount+1)
	for _, t := range tiers {
		args = append(args, floatArg(t))
	}
	args = append(args, codpro)

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT Codpro FROM Precios WHERE Codpro = ?`, codpro).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO Precios (PreTema1, PreTema2, PreTema3, PreTema4, PreTema5, PreTema6, Codpro)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return fmt.Errorf("inserting prices: %w", err)
		}
	case err != nil:
		return fmt.Errorf("checking prices: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE Precios SET
				PreTema1 = ?, PreTema2 = ?, PreTema3 = ?,
				PreTema4 = ?, PreTema5 = ?, PreTema6 = ?
			WHERE Codpro = ?
		`, args...)
		if err != nil {
			return fmt.Errorf("updating prices: %w", err)
		}
	}

	return tx.Commit()
}

// UpsertProduct inserts or updates a catalogue entry
func (ss *SQLiteStorage) UpsertProduct(ctx context.Context, product *model.Product) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO Productos (CodPro, Nombre, Tipo, Eliminado) VALUES (?, ?, ?, ?)
		ON CONFLICT(CodPro) DO UPDATE SET
			Nombre = excluded.Nombre,
			Tipo = excluded.Tipo,
			Eliminado = excluded.Eliminado
	`, product.CodPro, product.Nombre, product.Tipo, product.Eliminado)
	if err != nil {
		return fmt.Errorf("saving product: %w", err)
	}
	return nil
}

// GetProduct returns one catalogue entry
func (ss *SQLiteStorage) GetProduct(ctx context.Context, codpro string) (*model.Product, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var p model.Product
	err := ss.db.QueryRowContext(ctx,
		`SELECT CodPro, Nombre, Tipo, Eliminado FROM Productos WHERE CodPro = ?`, codpro,
	).Scan(&p.CodPro, &p.Nombre, &p.Tipo, &p.Eliminado)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
