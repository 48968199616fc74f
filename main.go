package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/doclens/doclens/datapoint"
	"github.com/doclens/doclens/dataset"
	"github.com/doclens/doclens/infer"
	"github.com/doclens/doclens/tokenclass"
)

func main() {
	fyneApp := app.NewWithID("com.doclens.review")
	win := fyneApp.NewWindow("Doclens dataset review")
	win.Resize(fyne.NewSize(1024, 768))

	cfg, err := tokenclass.LoadConfig("")
	if err != nil {
		showFatalError(win, fmt.Errorf("failed to load configuration: %w", err))
		return
	}

	loggerBinding := binding.NewString()
	logCapture := newLogCapture(loggerBinding, 300)
	logger := log.New(io.MultiWriter(os.Stdout, logCapture), "", log.LstdFlags)

	var (
		imagesMu sync.Mutex
		images   []*datapoint.Image
	)

	workdirEntry := widget.NewEntry()
	workdirEntry.SetPlaceHolder("Dataset work directory (contains the split annotation folders)")

	browseButton := widget.NewButton("Browse…", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				showError(win, err)
				return
			}
			if uri != nil {
				workdirEntry.SetText(uri.Path())
			}
		}, win)
	})

	splitSelect := widget.NewSelect([]string{
		string(dataset.SplitTrain), string(dataset.SplitVal), string(dataset.SplitTest),
	}, nil)
	splitSelect.SetSelected(string(dataset.SplitVal))

	maxEntry := widget.NewEntry()
	maxEntry.SetPlaceHolder("max datapoints (empty = all)")

	statusLabel := widget.NewLabel("No dataset loaded")

	detail := widget.NewMultiLineEntry()
	detail.Wrapping = fyne.TextWrapWord
	detail.SetPlaceHolder("Select an image to inspect its annotations")

	imageList := widget.NewList(
		func() int {
			imagesMu.Lock()
			defer imagesMu.Unlock()
			return len(images)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("image")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			imagesMu.Lock()
			defer imagesMu.Unlock()
			if id < 0 || id >= len(images) {
				return
			}
			im := images[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s (%d annotations)", im.FileName, len(im.Annotations)))
		},
	)
	imageList.OnSelected = func(id widget.ListItemID) {
		imagesMu.Lock()
		defer imagesMu.Unlock()
		if id < 0 || id >= len(images) {
			return
		}
		detail.SetText(formatImage(images[id]))
	}

	loadButton := widget.NewButton("Load split", func() {
		workdir := strings.TrimSpace(workdirEntry.Text)
		if workdir == "" {
			showError(win, fmt.Errorf("choose a dataset work directory first"))
			return
		}
		maxDatapoints := 0
		if text := strings.TrimSpace(maxEntry.Text); text != "" {
			n, err := strconv.Atoi(text)
			if err != nil || n < 0 {
				showError(win, fmt.Errorf("invalid max datapoints %q", text))
				return
			}
			maxDatapoints = n
		}
		split := dataset.Split(splitSelect.Selected)
		statusLabel.SetText("Loading…")

		go func() {
			builder, err := dataset.NewIIITar13KBuilder(workdir, logger)
			if err != nil {
				fyneApp.Driver().CallOnMainThread(func() {
					statusLabel.SetText("Load failed")
					showError(win, err)
				})
				return
			}
			var loaded []*datapoint.Image
			err = builder.Build(context.Background(), dataset.BuildOptions{
				Split:         split,
				MaxDatapoints: maxDatapoints,
			}, func(im *datapoint.Image) error {
				loaded = append(loaded, im)
				return nil
			})
			fyneApp.Driver().CallOnMainThread(func() {
				if err != nil {
					statusLabel.SetText("Load failed")
					showError(win, err)
					return
				}
				imagesMu.Lock()
				images = loaded
				imagesMu.Unlock()
				imageList.Refresh()
				detail.SetText("")
				statusLabel.SetText(fmt.Sprintf("Loaded %d images from split %q", len(loaded), split))
			})
		}()
	})

	runtimeStatus := "inference runtime: unavailable"
	if infer.Available(cfg.Model.Encoder) {
		runtimeStatus = fmt.Sprintf("inference runtime: ready (%s)", cfg.Model.Encoder.ModelPath)
	}
	runtimeLabel := widget.NewLabel(runtimeStatus)

	logLabel := widget.NewLabelWithData(loggerBinding)
	logLabel.Wrapping = fyne.TextWrapWord

	controls := container.NewVBox(
		container.NewBorder(nil, nil, nil, browseButton, workdirEntry),
		container.NewHBox(widget.NewLabel("Split:"), splitSelect, maxEntry, loadButton),
		statusLabel,
		runtimeLabel,
	)
	split := container.NewHSplit(imageList, detail)
	split.SetOffset(0.35)
	root := container.NewBorder(controls, container.NewVScroll(logLabel), nil, nil, split)

	win.SetContent(root)
	win.ShowAndRun()
}

func formatImage(im *datapoint.Image) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%g x %g\n", im.FileName, im.Width, im.Height)
	if im.Location != "" {
		fmt.Fprintf(&b, "annotation file: %s\n", im.Location)
	}
	b.WriteString("\n")
	for i, ann := range im.Annotations {
		fmt.Fprintf(&b, "[%d] %s  ulx=%g uly=%g w=%g h=%g\n",
			i+1, ann.CategoryName, ann.Box.ULX, ann.Box.ULY, ann.Box.Width, ann.Box.Height)
	}
	if len(im.Annotations) == 0 {
		b.WriteString("(no annotations)\n")
	}
	return b.String()
}

func showFatalError(win fyne.Window, err error) {
	content := widget.NewLabel(err.Error())
	win.SetContent(content)
	dialog.ShowError(err, win)
	win.ShowAndRun()
}

func showError(win fyne.Window, err error) {
	if err != nil {
		dialog.ShowError(err, win)
	}
}

type logCapture struct {
	mu      sync.Mutex
	lines   []string
	limit   int
	binding binding.String
}

func newLogCapture(b binding.String, limit int) *logCapture {
	return &logCapture{binding: b, limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	_ = l.binding.Set(strings.Join(l.lines, "\n"))
	return len(p), nil
}
