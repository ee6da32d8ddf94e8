package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// StockLine is one product row in the stock position report.
type StockLine struct {
	Code             string
	EAN              string
	Name             string
	Importer         string
	Location         string
	Warehouse        int64
	Retail           int64
	WarehouseReserve int64
	RetailReserve    int64
}

// Total returns all units currently tracked for the product.
func (l StockLine) Total() int64 {
	return l.Warehouse + l.Retail + l.WarehouseReserve + l.RetailReserve
}

// StockPosition aggregates the report data.
type StockPosition struct {
	GeneratedAt   time.Time
	Lines         []StockLine
	OpenTransfers int64
	OpenReserves  int64
	TotalUnits    int64
	TotalReserved int64
}

// StockReporter assembles stock position reports.
type StockReporter struct {
	pool *pgxpool.Pool
}

// NewStockReporter constructs the reporter.
func NewStockReporter(pool *pgxpool.Pool) *StockReporter {
	return &StockReporter{pool: pool}
}

// Build gathers the report data, querying lines and open-movement counters
// concurrently.
func (r *StockReporter) Build(ctx context.Context) (*StockPosition, error) {
	position := &StockPosition{GeneratedAt: time.Now()}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT code, COALESCE(ean, ''), name, importer, COALESCE(location, ''),
warehouse_qty, retail_qty, warehouse_reserve_qty, retail_reserve_qty
FROM products ORDER BY code`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var line StockLine
			if err := rows.Scan(&line.Code, &line.EAN, &line.Name, &line.Importer, &line.Location,
				&line.Warehouse, &line.Retail, &line.WarehouseReserve, &line.RetailReserve); err != nil {
				return err
			}
			position.Lines = append(position.Lines, line)
		}
		return rows.Err()
	})
	group.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE tx_type = 'TRANSFERENCE' AND NOT confirmed`).
			Scan(&position.OpenTransfers)
	})
	group.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE tx_type = 'RESERVE' AND NOT confirmed`).
			Scan(&position.OpenReserves)
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, line := range position.Lines {
		position.TotalUnits += line.Total()
		position.TotalReserved += line.WarehouseReserve + line.RetailReserve
	}
	return position, nil
}

// CSV renders the report as CSV.
func (p *StockPosition) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"code", "ean", "name", "importer", "location",
		"warehouse_qty", "retail_qty", "warehouse_reserve_qty", "retail_reserve_qty", "total"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, line := range p.Lines {
		record := []string{
			line.Code, line.EAN, line.Name, line.Importer, line.Location,
			strconv.FormatInt(line.Warehouse, 10),
			strconv.FormatInt(line.Retail, 10),
			strconv.FormatInt(line.WarehouseReserve, 10),
			strconv.FormatInt(line.RetailReserve, 10),
			strconv.FormatInt(line.Total(), 10),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var stockTemplate = template.Must(template.New("stock").Parse(`<html>
<head><title>Posição de Estoque</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #eee; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>Posição de Estoque</h1>
<p>Gerado em {{.GeneratedAt.Format "02/01/2006 15:04"}}
(transferências abertas: {{.OpenTransfers}}, reservas abertas: {{.OpenReserves}})</p>
<table>
<tr><th>Código</th><th>EAN</th><th>Produto</th><th>Importadora</th><th>Local</th>
<th>Depósito</th><th>Loja</th><th>Res. Depósito</th><th>Res. Loja</th><th>Total</th></tr>
{{range .Lines}}<tr>
<td>{{.Code}}</td><td>{{.EAN}}</td><td>{{.Name}}</td><td>{{.Importer}}</td><td>{{.Location}}</td>
<td class="num">{{.Warehouse}}</td><td class="num">{{.Retail}}</td>
<td class="num">{{.WarehouseReserve}}</td><td class="num">{{.RetailReserve}}</td>
<td class="num">{{.Total}}</td>
</tr>{{end}}
<tr><th colspan="9">Total de unidades</th><th>{{.TotalUnits}}</th></tr>
</table>
</body></html>`))

// HTML renders the report for PDF conversion.
func (p *StockPosition) HTML() (string, error) {
	var buf bytes.Buffer
	if err := stockTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render stock report: %w", err)
	}
	return buf.String(), nil
}
