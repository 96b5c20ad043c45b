package docx

// grid converts a parsed table to row-major cell text. A cell spanning
// several grid columns repeats its text in each of them, and a vertically
// merged continuation cell repeats the text of the cell above it.
func (t *table) grid() [][]string {
	out := make([][]string, 0, len(t.rows))
	var prev []string
	for _, row := range t.rows {
		var cells []string
		for _, cell := range row.cells {
			text := cell.text
			if cell.vMerge == "continue" && len(cells) < len(prev) {
				text = prev[len(cells)]
			}
			for i := 0; i < cell.span; i++ {
				cells = append(cells, text)
			}
		}
		if cells == nil {
			cells = []string{}
		}
		out = append(out, cells)
		prev = cells
	}
	return out
}
