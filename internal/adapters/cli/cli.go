package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sample-logistics/internal/app"
	"sample-logistics/internal/core"
)

const usage = `Available:
  dispatches [status]                       list dispatches, optionally by status
  dispatch <id>                             show one dispatch as JSON
  receive <id>                              mark delivered and credit the warehouse
  ship <id> <tracking> [carrier]            mark shipped with tracking details
  return <id>                               mark returned
  transfer <sample-id> <qty> [showroom-id]  move units; omit showroom to send back
  samples <warehouse-id> [warehouse|showroom]
  export <warehouse-id> <file.xlsx>
  warehouses                                list warehouses
  stock <store-id>                          sellable stock per product unit
  restock <product-unit-id> <delta>         correct stock by delta
  count <product-unit-id> <qty>             record a stock count`

// Run executes a one-shot CLI command as the system operator.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	actor := app.SystemActor

	switch args[0] {
	case "help", "h":
		fmt.Fprintln(out, usage)

	case "dispatches", "ds":
		req := app.ListDispatchesRequest{}
		if len(args) > 1 {
			req.Status = args[1]
		}
		result, err := svc.ListDispatches(ctx, actor, req)
		if err != nil {
			return fmt.Errorf("failed to list dispatches: %w", err)
		}
		printDispatches(out, result.Dispatches)

	case "dispatch", "d":
		id, err := argID(args, 1, "Usage: app dispatch <id>")
		if err != nil {
			return err
		}
		result, err := svc.GetDispatch(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("failed to get dispatch: %w", err)
		}
		return printJSON(out, result.Dispatch)

	case "receive", "rcv":
		id, err := argID(args, 1, "Usage: app receive <id>")
		if err != nil {
			return err
		}
		result, err := svc.ReceiveDispatch(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("receive failed: %w", err)
		}
		fmt.Fprintf(out, "Dispatch %d delivered to %s (%d units).\n",
			result.Dispatch.ID, warehouseLabel(result.Dispatch), unitsOf(result.Dispatch))

	case "ship":
		if len(args) < 3 {
			return errors.New("Usage: app ship <id> <tracking> [carrier]")
		}
		id, err := argID(args, 1, "Usage: app ship <id> <tracking> [carrier]")
		if err != nil {
			return err
		}
		status := string(core.StatusShipped)
		req := app.UpdateShippingRequest{Status: &status, TrackingNumber: &args[2]}
		if len(args) > 3 {
			req.Carrier = &args[3]
		}
		result, err := svc.UpdateDispatchShipping(ctx, actor, id, req)
		if err != nil {
			return fmt.Errorf("ship failed: %w", err)
		}
		fmt.Fprintf(out, "Dispatch %d is %s.\n", result.Dispatch.ID, result.Dispatch.Status)

	case "return", "ret":
		id, err := argID(args, 1, "Usage: app return <id>")
		if err != nil {
			return err
		}
		status := string(core.StatusReturned)
		result, err := svc.UpdateDispatchShipping(ctx, actor, id, app.UpdateShippingRequest{Status: &status})
		if err != nil {
			return fmt.Errorf("return failed: %w", err)
		}
		fmt.Fprintf(out, "Dispatch %d is %s.\n", result.Dispatch.ID, result.Dispatch.Status)

	case "transfer", "mv":
		const u = "Usage: app transfer <sample-id> <qty> [showroom-id]"
		id, err := argID(args, 1, u)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New(u)
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q\n%s", args[2], u)
		}
		req := app.TransferRequest{SampleID: id, Quantity: qty}
		if len(args) > 3 {
			showroomID, err := argID(args, 3, u)
			if err != nil {
				return err
			}
			req.ShowroomID = &showroomID
		}
		result, err := svc.TransferSample(ctx, actor, req)
		if err != nil {
			return fmt.Errorf("transfer failed: %w", err)
		}
		t := result.Transfer
		fmt.Fprintf(out, "Moved %d to %s (sample %d, now %d).\n",
			qty, t.Destination.Location, t.Destination.ID, t.Destination.Quantity)
		if t.SourceDeleted {
			fmt.Fprintf(out, "Sample %d emptied and removed.\n", id)
		} else if t.Source != nil {
			fmt.Fprintf(out, "Sample %d has %d left.\n", t.Source.ID, t.Source.Quantity)
		}

	case "samples", "ls":
		const u = "Usage: app samples <warehouse-id> [warehouse|showroom]"
		id, err := argID(args, 1, u)
		if err != nil {
			return err
		}
		filter := core.SampleFilter{WarehouseID: id}
		if len(args) > 2 {
			kind, err := core.ParseLocationKind(args[2])
			if err != nil {
				return fmt.Errorf("%v\n%s", err, u)
			}
			filter.Kind = kind
		}
		result, err := svc.ListSamples(ctx, actor, filter)
		if err != nil {
			return fmt.Errorf("failed to list samples: %w", err)
		}
		printSamples(out, result)

	case "export", "xlsx":
		const u = "Usage: app export <warehouse-id> <file.xlsx>"
		id, err := argID(args, 1, u)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New(u)
		}
		result, err := svc.ExportWarehouseSamples(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if err := os.WriteFile(args[2], result.Content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[2], err)
		}
		fmt.Fprintf(out, "Wrote %s (%d bytes).\n", args[2], len(result.Content))

	case "restock":
		const u = "Usage: app restock <product-unit-id> <delta>"
		id, err := argID(args, 1, u)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New(u)
		}
		delta, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid delta %q\n%s", args[2], u)
		}
		result, err := svc.AdjustStock(ctx, actor, id, delta)
		if err != nil {
			return fmt.Errorf("restock failed: %w", err)
		}
		fmt.Fprintf(out, "Product unit %d (%s) now has %d in stock.\n",
			result.ProductUnit.ID, result.ProductUnit.SKU, result.ProductUnit.Quantity)

	case "count":
		const u = "Usage: app count <product-unit-id> <qty>"
		id, err := argID(args, 1, u)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New(u)
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil || qty < 0 {
			return fmt.Errorf("invalid quantity %q\n%s", args[2], u)
		}
		result, err := svc.SetStock(ctx, actor, id, qty)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		fmt.Fprintf(out, "Product unit %d (%s) counted at %d.\n",
			result.ProductUnit.ID, result.ProductUnit.SKU, result.ProductUnit.Quantity)

	case "warehouses", "wh":
		result, err := svc.ListWarehouses(ctx, actor)
		if err != nil {
			return fmt.Errorf("failed to list warehouses: %w", err)
		}
		for _, wh := range result.Warehouses {
			fmt.Fprintf(out, "  %-6d %-24s %s\n", wh.ID, truncate(wh.Name, 24), wh.Address)
		}

	case "stock":
		id, err := argID(args, 1, "Usage: app stock <store-id>")
		if err != nil {
			return err
		}
		result, err := svc.ListProductUnits(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("failed to list stock: %w", err)
		}
		fmt.Fprintf(out, "%s\n", result.Store.Name)
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, u := range result.ProductUnits {
			fmt.Fprintf(out, "  %-6d %-14s %-28s %6d\n", u.ID, truncate(u.SKU, 14), truncate(u.ProductName, 28), u.Quantity)
		}

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func argID(args []string, i int, usage string) (int64, error) {
	if len(args) <= i {
		return 0, errors.New(usage)
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q\n%s", args[i], usage)
	}
	return id, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func warehouseLabel(d *core.Dispatch) string {
	if d.WarehouseName != "" {
		return d.WarehouseName
	}
	return fmt.Sprintf("warehouse %d", d.WarehouseID)
}

func unitsOf(d *core.Dispatch) int {
	n := 0
	for _, l := range d.Lines {
		n += l.Quantity
	}
	return n
}

func printDispatches(out io.Writer, list []core.Dispatch) {
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  %-6s %-12s %-20s %-20s %6s %8s\n", "ID", "STATUS", "STORE", "WAREHOUSE", "LINES", "UNITS")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for i := range list {
		d := &list[i]
		fmt.Fprintf(out, "  %-6d %-12s %-20s %-20s %6d %8d\n",
			d.ID, d.Status, truncate(d.StoreName, 20), truncate(warehouseLabel(d), 20), len(d.Lines), unitsOf(d))
	}
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func printSamples(out io.Writer, result *app.SampleListResult) {
	fmt.Fprintln(out, strings.Repeat("=", 78))
	fmt.Fprintf(out, "  %-6s %-14s %-22s %-24s %6s\n", "ID", "SKU", "PRODUCT", "LOCATION", "QTY")
	fmt.Fprintln(out, strings.Repeat("-", 78))
	for _, s := range result.Samples {
		loc := s.LocationName
		if loc == "" {
			loc = s.Location.String()
		}
		fmt.Fprintf(out, "  %-6d %-14s %-22s %-24s %6d\n",
			s.ID, truncate(s.SKU, 14), truncate(s.ProductName, 22), truncate(loc, 24), s.Quantity)
	}
	fmt.Fprintln(out, strings.Repeat("-", 78))
	fmt.Fprintf(out, "  %-68s %6d\n", "TOTAL", result.Total)
	fmt.Fprintln(out, strings.Repeat("=", 78))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
