package main

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/wippyai/encbridge/sink"
	"github.com/wippyai/encbridge/wasmhost"
)

func renderSummary(res wasmhost.Result, stats sink.Stats, elapsed time.Duration) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})

	closeStatus := "-"
	if stats.Closed {
		closeStatus = stats.CloseStatus.String()
	}

	tw.AppendRows([]table.Row{
		{"Session", res.Session.ID},
		{"Handle", strconv.FormatUint(uint64(res.Session.Handle), 10)},
		{"Status", res.Status.String()},
		{"Closed by guest", strconv.FormatBool(res.Closed)},
		{"Close status", closeStatus},
		{"Writes", humanize.Comma(stats.Writes)},
		{"Failed writes", humanize.Comma(stats.Failures)},
		{"Bytes", humanize.IBytes(uint64(stats.Bytes))},
		{"Elapsed", elapsed.Round(time.Millisecond).String()},
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
