package http

import (
	"net/http"

	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	productsSheet   = "Products"
)

var excelHeader = []any{"ID", "Name", "Price", "Version"}

// writeExcel отдаёт страницу продуктов как xlsx-файл.
func writeExcel(w http.ResponseWriter, res *usecase.ListProductsRes) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", productsSheet); err != nil {
		WriteError(w, err)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := f.SetSheetRow(productsSheet, "A1", &excelHeader); err != nil {
		WriteError(w, err)
		return e.Wrap(whereami.WhereAmI(), err)
	}

	for i, p := range res.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			WriteError(w, err)
			return e.Wrap(whereami.WhereAmI(), err)
		}

		row := []any{p.ID, p.Name, centsToPrice(p.Price).InexactFloat64(), p.Version}
		if err := f.SetSheetRow(productsSheet, cell, &row); err != nil {
			WriteError(w, err)
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	w.WriteHeader(http.StatusOK)

	if _, err := f.WriteTo(w); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
