package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-cog/pkg/cog"
)

func newViewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Interactive terminal viewer for a local or remote COG",
		ArgsUsage: "<path-or-url>",
		Action:    viewAction,
	}
}

func viewAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: path or URL")
	}
	target := cmd.Args().First()

	reader, closer, err := openReader(ctx, cmd, target)
	if err != nil {
		return err
	}
	defer closer()

	info, err := reader.Info()
	if err != nil {
		return err
	}

	return newViewer(reader, target, info).run()
}

type viewer struct {
	app     *tview.Application
	details *tview.TextView
	levels  *tview.List
	preview *tview.TextView

	reader *cog.Reader
	info   cog.Info
}

func configureStyles() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.BorderColor = tcell.ColorWhite
	tview.Styles.TitleColor = tcell.ColorWhite
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorYellow
}

func newViewer(reader *cog.Reader, title string, info cog.Info) *viewer {
	configureStyles()

	v := &viewer{
		app:    tview.NewApplication(),
		reader: reader,
		info:   info,
	}

	v.details = tview.NewTextView().SetDynamicColors(true)
	v.details.SetBorder(true).SetTitle(" Metadata ")
	v.details.SetText(formatDetails(title, info))

	v.levels = tview.NewList().ShowSecondaryText(true)
	v.levels.SetBorder(true).SetTitle(" Levels ")
	for i, overview := range info.Overviews {
		label := fmt.Sprintf("Level %d", i)
		if i == 0 {
			label += " (base)"
		}
		v.levels.AddItem(label, fmt.Sprintf("%dx%d", overview.Size[0], overview.Size[1]), 0, nil)
	}
	v.levels.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		v.showLevel(index)
	})

	v.preview = tview.NewTextView()
	v.preview.SetBorder(true).SetTitle(" Preview ")

	sidebar := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.details, 0, 1, false).
		AddItem(v.levels, 0, 1, true)
	layout := tview.NewFlex().
		AddItem(sidebar, 44, 0, true).
		AddItem(v.preview, 0, 1, false)

	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			v.app.Stop()
			return nil
		}
		return event
	})
	v.app.SetRoot(layout, true)

	v.showLevel(0)
	return v
}

func (v *viewer) run() error { return v.app.Run() }

// showLevel renders an ASCII shade preview of the selected resolution level.
func (v *viewer) showLevel(level int) {
	grid, err := v.reader.ReadLevel(level)
	if err != nil {
		v.preview.SetText(fmt.Sprintf("read failed: %v", err))
		return
	}
	v.preview.SetText(renderShades(grid, 96, 48))
}

func formatDetails(title string, info cog.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]File:[white] %s\n", title)
	fmt.Fprintf(&b, "[yellow]Type:[white] %s\n", info.Type)
	fmt.Fprintf(&b, "[yellow]Size:[white] %dx%d\n", info.Size[0], info.Size[1])
	fmt.Fprintf(&b, "[yellow]CRS:[white] %s\n", info.CRS)
	fmt.Fprintf(&b, "[yellow]NoData:[white] %g\n", info.NoData)
	gt := info.GeoTransform
	fmt.Fprintf(&b, "[yellow]Origin:[white] %g, %g\n", gt[0], gt[3])
	fmt.Fprintf(&b, "[yellow]Pixel size:[white] %g, %g\n", gt[1], gt[5])
	fmt.Fprintf(&b, "[yellow]Levels:[white] %d\n", len(info.Overviews))
	b.WriteString("\n[yellow]q[white] to quit")
	return b.String()
}
