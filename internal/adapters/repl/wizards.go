package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sample-logistics/internal/app"
)

// handleNewDispatch runs an interactive dispatch creation session.
func handleNewDispatch(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, storeArg, warehouseArg string) {
	storeID, err1 := strconv.ParseInt(storeArg, 10, 64)
	warehouseID, err2 := strconv.ParseInt(warehouseArg, 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(out, "Store and warehouse must be numeric ids.")
		return
	}

	fmt.Fprintf(out, "Dispatching from store %d to warehouse %d\n", storeID, warehouseID)
	fmt.Fprintln(out, "Enter dispatch lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per line: <product-unit-id> <quantity>")
	fmt.Fprintln(out, "  Example: 12 3")

	var lines []app.DispatchLineRequest
	lineNum := 1
	for {
		fmt.Fprintf(out, "  Line %d: ", lineNum)
		raw, err := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.ToLower(raw) == "cancel" || (err != nil && raw == "") {
			fmt.Fprintln(out, "Dispatch creation cancelled.")
			return
		}
		if strings.ToLower(raw) == "done" {
			break
		}
		if raw == "" {
			continue
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 {
			fmt.Fprintln(out, "  Invalid format. Use: <product-unit-id> <quantity>")
			continue
		}
		unitID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || unitID <= 0 {
			fmt.Fprintln(out, "  Invalid product unit id.")
			continue
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty <= 0 {
			fmt.Fprintln(out, "  Invalid quantity.")
			continue
		}

		lines = append(lines, app.DispatchLineRequest{ProductUnitID: unitID, Quantity: qty})
		lineNum++
	}

	if len(lines) == 0 {
		fmt.Fprintln(out, "No lines entered. Dispatch not created.")
		return
	}

	showroomIDs, ok := promptIDs(reader, out, "Showroom ids, space separated (optional): ")
	if !ok {
		fmt.Fprintln(out, "Invalid showroom ids. Dispatch not created.")
		return
	}
	tracking := prompt(reader, out, "Tracking number (optional, marks the dispatch shipped): ")
	carrier := prompt(reader, out, "Carrier (optional): ")

	result, err := svc.CreateDispatch(ctx, app.SystemActor, app.CreateDispatchRequest{
		StoreID:        storeID,
		WarehouseID:    warehouseID,
		ShowroomIDs:    showroomIDs,
		Lines:          lines,
		TrackingNumber: tracking,
		Carrier:        carrier,
	})
	if err != nil {
		fmt.Fprintf(out, "Error creating dispatch: %v\n", err)
		return
	}

	fmt.Fprintf(out, "\nDispatch created (ID: %d, Status: %s)\n", result.Dispatch.ID, result.Dispatch.Status)
	printDispatchDetail(out, result.Dispatch)
	fmt.Fprintf(out, "Use '/receive %d' once it arrives.\n", result.Dispatch.ID)
}

func prompt(reader *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}

func promptIDs(reader *bufio.Reader, out io.Writer, label string) ([]int64, bool) {
	var ids []int64
	for _, f := range strings.Fields(prompt(reader, out, label)) {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id <= 0 {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
