// Package export renders the comprehensive report as an Excel workbook.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"ecomflow/internal/model"
)

// Sheet names.
const (
	SheetStock        = "Stock"
	SheetNewCustomers = "NouveauxClients"
	SheetRevenue      = "CAMensuel"
	SheetConditions   = "Conditions"
)

// Workbook builds the report workbook. Amounts are rounded to two decimals.
func Workbook(rep model.ComprehensiveReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetStock); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetNewCustomers, SheetRevenue, SheetConditions} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	var rows [][]any
	rows = append(rows, []any{"date", "product_id", "stock_initial", "quantite_vendue", "stock_restant", "unmanaged"})
	for _, day := range rep.Stock {
		for _, r := range day.Rows {
			rows = append(rows, []any{day.Date.Format(model.DateLayout), r.ProductID, r.StockInitial, r.QuantiteVendue, r.StockRestant, r.Unmanaged})
		}
	}
	if err := writeRows(f, SheetStock, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{{"date", "nouveaux_clients", "revenus_nouveaux_clients"}}
	for _, r := range rep.NewCustomers {
		rows = append(rows, []any{r.Date.Format(model.DateLayout), r.NouveauxClients, r.RevenusNouveauxClients.Round(2).InexactFloat64()})
	}
	if err := writeRows(f, SheetNewCustomers, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{{"annee", "mois", "ca_total", "nombre_commandes", "panier_moyen", "ca_moyen_par_jour",
		"jours_avec_commandes", "meilleur_jour", "ca_meilleur_jour", "pire_jour", "ca_pire_jour",
		"ca_semaine", "ca_week_end", "empty"}}
	for _, m := range rep.Monthly {
		m = m.Rounded()
		rows = append(rows, []any{m.Annee, m.Mois, m.CATotal.InexactFloat64(), m.NombreCommandes,
			m.PanierMoyen.InexactFloat64(), m.CAMoyenParJour.InexactFloat64(), m.JoursAvecCommandes,
			dayCell(m.MeilleurJour), m.MeilleurJour.Revenue.InexactFloat64(),
			dayCell(m.PireJour), m.PireJour.Revenue.InexactFloat64(),
			m.Semaine.Revenue.InexactFloat64(), m.WeekEnd.Revenue.InexactFloat64(), m.Empty})
	}
	if err := writeRows(f, SheetRevenue, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]any{{"date", "stage", "kind", "message"}}
	for _, c := range rep.Conditions {
		rows = append(rows, []any{c.Date.Format(model.DateLayout), c.Stage, c.Kind, c.Message})
	}
	if err := writeRows(f, SheetConditions, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook saves the report workbook to path.
func WriteWorkbook(rep model.ComprehensiveReport, path string) error {
	f, err := Workbook(rep)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func dayCell(d model.DayRevenue) string {
	if d.Date.IsZero() {
		return ""
	}
	return d.Date.Format(model.DateLayout)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
