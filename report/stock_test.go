package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func samplePosition() *StockPosition {
	return &StockPosition{
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Lines: []StockLine{
			{Code: "P1", EAN: "789P1", Name: "Produto Um", Importer: "HOUSE", Location: "A-3", Warehouse: 22, Retail: 13},
			{Code: "P2", Name: "Produto Dois", Importer: "PARTNER", Warehouse: 5, WarehouseReserve: 2},
		},
		OpenTransfers: 1,
		OpenReserves:  2,
		TotalUnits:    42,
		TotalReserved: 2,
	}
}

func TestStockPositionCSV(t *testing.T) {
	data, err := samplePosition().CSV()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "code,ean,name,importer,location,warehouse_qty,retail_qty,warehouse_reserve_qty,retail_reserve_qty,total", lines[0])
	require.Equal(t, "P1,789P1,Produto Um,HOUSE,A-3,22,13,0,0,35", lines[1])
	require.Equal(t, "P2,,Produto Dois,PARTNER,,5,0,2,0,7", lines[2])
}

func TestStockPositionHTML(t *testing.T) {
	html, err := samplePosition().HTML()
	require.NoError(t, err)

	require.Contains(t, html, "Posição de Estoque")
	require.Contains(t, html, "transferências abertas: 1")
	require.Contains(t, html, "Produto Dois")
	require.Contains(t, html, "<th>42</th>")
}
