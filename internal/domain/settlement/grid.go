package settlement

import "fmt"

// DecodeFieldGrid validates rows read from storage into a fixed 5x5 grid.
// Rows of the wrong shape are rejected instead of padded or truncated.
func DecodeFieldGrid(rows [][]GridSlot) (FieldGrid, error) {
	var g FieldGrid
	if err := checkShape(rows, FieldRows, FieldCols); err != nil {
		return g, fmt.Errorf("fields: %w", err)
	}
	for r := range g {
		copy(g[r][:], rows[r])
	}
	return g, nil
}

func DecodeBuildingGrid(rows [][]GridSlot) (BuildingGrid, error) {
	var g BuildingGrid
	if err := checkShape(rows, BuildingRows, BuildingCols); err != nil {
		return g, fmt.Errorf("buildings: %w", err)
	}
	for r := range g {
		copy(g[r][:], rows[r])
	}
	return g, nil
}

func checkShape(rows [][]GridSlot, wantRows, wantCols int) error {
	if len(rows) != wantRows {
		return fmt.Errorf("%w: %d rows, want %d", ErrMalformedGrid, len(rows), wantRows)
	}
	for i, row := range rows {
		if len(row) != wantCols {
			return fmt.Errorf("%w: row %d has %d slots, want %d", ErrMalformedGrid, i, len(row), wantCols)
		}
		for j, slot := range row {
			if slot.Name == "" || slot.Level < 0 {
				return fmt.Errorf("%w: slot %d,%d invalid", ErrMalformedGrid, i, j)
			}
		}
	}
	return nil
}

func (g FieldGrid) Rows() [][]GridSlot {
	out := make([][]GridSlot, len(g))
	for r := range g {
		out[r] = append([]GridSlot(nil), g[r][:]...)
	}
	return out
}

func (g BuildingGrid) Rows() [][]GridSlot {
	out := make([][]GridSlot, len(g))
	for r := range g {
		out[r] = append([]GridSlot(nil), g[r][:]...)
	}
	return out
}
