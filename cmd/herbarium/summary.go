package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ekisa-team/herbarium/internal/config"
	"github.com/ekisa-team/herbarium/internal/labels"
	"github.com/ekisa-team/herbarium/internal/model"
)

// printSummary describes the loaded model and its label table.
func printSummary(w io.Writer, cfg *config.Config, instance *model.Instance, cached bool) {
	m := instance.Manifest

	fetched := "downloaded"
	if cached {
		fetched = "cached"
	}

	loadedAt := ""
	if instance.LoadedAt != nil {
		loadedAt = instance.LoadedAt.Format(time.RFC3339)
	}

	info := newTable(w)
	info.SetHeader([]string{"Setting", "Value"})
	info.AppendBulk([][]string{
		{"artifact", instance.Path + " (" + fetched + ")"},
		{"backend", string(m.Backend)},
		{"device", string(m.Device)},
		{"producer", m.Producer},
		{"image size", strconv.Itoa(m.ImageSize)},
		{"classes", strconv.Itoa(len(m.Classes))},
		{"sessions", strconv.Itoa(len(instance.Sessions))},
		{"loaded at", loadedAt},
		{"http", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)},
	})
	info.Render()

	_, _ = fmt.Fprintln(w)

	classes := newTable(w)
	classes.SetHeader([]string{"Index", "Code", "Label", "Label (zh)"})
	for i, code := range m.Classes {
		en, _ := labels.LookupLang(code, labels.English)
		zh, _ := labels.LookupLang(code, labels.Chinese)
		classes.Append([]string{strconv.Itoa(i), code, en, zh})
	}
	classes.Render()

	_, _ = fmt.Fprintln(w, "\nRun with \"serve\" to start the service.")
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
