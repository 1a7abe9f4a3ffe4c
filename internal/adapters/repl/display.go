package repl

import (
	"fmt"
	"io"
	"strings"

	"sample-logistics/internal/core"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Dispatches:")
	fmt.Fprintln(out, "  /new-dispatch <store-id> <warehouse-id>   interactive wizard")
	fmt.Fprintln(out, "  /dispatches [status]                      list")
	fmt.Fprintln(out, "  /dispatch <id>                            detail as JSON")
	fmt.Fprintln(out, "  /ship <id> <tracking> [carrier]")
	fmt.Fprintln(out, "  /return <id>")
	fmt.Fprintln(out, "  /receive <id>                             credit the warehouse")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Samples:")
	fmt.Fprintln(out, "  /samples <warehouse-id> [warehouse|showroom]")
	fmt.Fprintln(out, "  /transfer <sample-id> <qty> [showroom-id]")
	fmt.Fprintln(out, "  /export <warehouse-id> <file.xlsx>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Stock:")
	fmt.Fprintln(out, "  /warehouses")
	fmt.Fprintln(out, "  /stock <store-id>")
	fmt.Fprintln(out, "  /restock <product-unit-id> <delta>")
	fmt.Fprintln(out, "  /count <product-unit-id> <qty>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  /help, /exit")
}

func printDispatchDetail(out io.Writer, d *core.Dispatch) {
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  Store     : %d %s\n", d.StoreID, d.StoreName)
	fmt.Fprintf(out, "  Warehouse : %d %s\n", d.WarehouseID, d.WarehouseName)
	if d.TrackingNumber != nil {
		carrier := ""
		if d.Carrier != nil {
			carrier = " via " + *d.Carrier
		}
		fmt.Fprintf(out, "  Tracking  : %s%s\n", *d.TrackingNumber, carrier)
	}
	if len(d.Showrooms) > 0 {
		ids := make([]string, len(d.Showrooms))
		for i, id := range d.Showrooms {
			ids[i] = fmt.Sprintf("%d", id)
		}
		fmt.Fprintf(out, "  Showrooms : %s\n", strings.Join(ids, ", "))
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-4s %-14s %-28s %8s\n", "#", "SKU", "PRODUCT", "QTY")
	total := 0
	for _, l := range d.Lines {
		fmt.Fprintf(out, "  %-4d %-14s %-28s %8d\n", l.LineNumber, l.SKU, l.ProductName, l.Quantity)
		total += l.Quantity
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-48s %8d\n", "TOTAL", total)
}
