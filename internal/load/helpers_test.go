package load

import pcsv "movieetl/internal/parser/csv"

func tableOf(header []string, row []string) *pcsv.Table {
	return pcsv.NewTable(header, [][]string{row})
}
