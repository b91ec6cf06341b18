// airviewer is the desktop viewer for climate station data: a pannable,
// zoomable time-series chart of temperature, humidity, derived absolute
// humidity and CO2, kept in sync with the airserver data service. Panning or
// zooming the chart refetches readings for the visible window without
// resetting the view; picking a preset span or changing the password reloads
// and refits the chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"airview/src/derive"
	"airview/src/sensor"
	"airview/src/view"
)

var presetSpans = []string{"1h", "6h", "24h", "7d", "4w"}

const co2PollInterval = 60 * time.Second

type uiState struct {
	app    fyne.App
	window fyne.Window

	panel      *chartPanel
	controller *view.Controller
	client     *sensor.Client
	bands      derive.BandTable

	presetSelect *widget.Select
	loadingBar   *widget.ProgressBarInfinite
	errLabel     *widget.Label
	statsLabel   *widget.Label
	spanLabel    *widget.Label
	resultsBox   *fyne.Container
	co2Label     *widget.Label
	co2Rect      *canvas.Rectangle
}

// dark theme wrapper
type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}
func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource { return theme.DefaultTheme().Font(style) }
func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 { return theme.DefaultTheme().Size(name) }

func main() {
	var serverURL string
	var password string
	var logLevel string
	var co2ZeroAbsent bool
	flag.StringVar(&serverURL, "server", "http://localhost:3000", "Base URL of the airserver data service")
	flag.StringVar(&password, "password", "", "Bearer password for the data service (empty for unauthenticated)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&co2ZeroAbsent, "co2-zero-absent", true, "Treat a CO2 reading of exactly 0 ppm as no sensor attached")
	flag.Parse()
	sensor.SetLogLevel(logLevel)

	a := app.NewWithID("io.airview.viewer")
	a.Settings().SetTheme(&darkTheme{})
	w := a.NewWindow("airview")
	w.Resize(fyne.NewSize(1100, 700))

	client := sensor.NewClient(serverURL)
	if password != "" {
		client.SetCredential(password)
	}

	state := &uiState{
		app:    a,
		window: w,
		panel:  newChartPanel(),
		client: client,
		bands:  derive.DefaultCO2Bands,
	}
	state.panel.showHints = a.Preferences().BoolWithFallback("showHints", true)

	presenter := state.buildStatusUI()
	state.controller = view.NewController(state.panel, presenter, client, view.ControllerConfig{
		Derive: derive.Options{CO2ZeroMeansAbsent: co2ZeroAbsent},
		Apply:  fyne.Do,
	})
	state.panel.onPanEnd = state.controller.PanCompleted
	state.panel.onZoom = state.controller.ZoomCompleted

	topBar := state.buildTopBar()
	statusRow := container.NewHBox(state.loadingBar, state.resultsBox)
	co2Strip := container.NewStack(state.co2Rect, state.co2Label)
	w.SetContent(container.NewBorder(
		container.NewVBox(topBar, statusRow, state.errLabel, co2Strip),
		nil, nil, nil,
		state.panel,
	))

	go state.pollCurrentCO2()

	// Selecting the stored preset fires the initial full reload.
	state.presetSelect.SetSelected(a.Preferences().StringWithFallback("preset", "24h"))

	w.ShowAndRun()
}

// buildStatusUI creates the widgets behind the Presenter and returns it.
func (s *uiState) buildStatusUI() view.Presenter {
	s.loadingBar = widget.NewProgressBarInfinite()
	s.loadingBar.Hide()

	s.errLabel = widget.NewLabel("")
	s.errLabel.Importance = widget.DangerImportance
	s.errLabel.Wrapping = fyne.TextWrapWord
	s.errLabel.Hide()

	s.statsLabel = widget.NewLabel("")
	s.spanLabel = widget.NewLabel("")
	s.resultsBox = container.NewHBox(s.statsLabel, s.spanLabel)
	s.resultsBox.Hide()

	s.co2Label = widget.NewLabel("CO2: waiting for reading")
	s.co2Rect = canvas.NewRectangle(color.RGBA{R: 40, G: 40, B: 40, A: 255})

	return &uiPresenter{state: s}
}

func (s *uiState) buildTopBar() fyne.CanvasObject {
	s.presetSelect = widget.NewSelect(presetSpans, func(name string) {
		s.app.Preferences().SetString("preset", name)
		s.controller.SetPreset(name)
	})

	passwordEntry := widget.NewPasswordEntry()
	passwordEntry.SetPlaceHolder("password")
	passwordEntry.OnSubmitted = func(token string) {
		s.controller.SetCredential(token)
	}

	refresh := widget.NewButton("Refresh", s.controller.Reload)
	resetZoom := widget.NewButton("Reset Zoom", s.controller.Reload)

	hints := widget.NewCheck("Hints", func(on bool) {
		s.panel.showHints = on
		s.app.Preferences().SetBool("showHints", on)
		s.panel.Redraw()
	})
	hints.SetChecked(s.panel.showHints)

	return container.NewHBox(
		widget.NewLabel("Span:"), s.presetSelect,
		refresh, resetZoom,
		widget.NewLabel("Auth:"), passwordEntry,
		hints,
	)
}

// pollCurrentCO2 keeps the band strip current. Poll failures only log; the
// strip keeps its last state rather than flashing errors for a side display.
func (s *uiState) pollCurrentCO2() {
	for {
		v, err := s.client.FetchCurrentCO2(context.Background())
		if err != nil {
			sensor.Debugf("current co2 poll: %v", err)
		} else {
			band, ok := s.bands.Lookup(v)
			fyne.Do(func() {
				if !ok {
					s.co2Label.SetText(fmt.Sprintf("CO2: %.0f ppm", v))
					return
				}
				s.co2Label.SetText(fmt.Sprintf("CO2: %.0f ppm (%s)", v, band.Description))
				s.co2Rect.FillColor = bandColor(band)
				s.co2Rect.Refresh()
			})
		}
		time.Sleep(co2PollInterval)
	}
}

// bandColor parses the band's #rrggbb display color, dimmed so label text
// stays readable on top of it.
func bandColor(b derive.Band) color.Color {
	var r, g, bl uint8
	if _, err := fmt.Sscanf(b.Color, "#%02x%02x%02x", &r, &g, &bl); err != nil {
		return color.RGBA{R: 40, G: 40, B: 40, A: 255}
	}
	return color.RGBA{R: r / 2, G: g / 2, B: bl / 2, A: 255}
}

// uiPresenter maps the engine's visibility roles onto concrete widgets.
type uiPresenter struct {
	state *uiState
}

var _ view.Presenter = (*uiPresenter)(nil)

func (p *uiPresenter) SetLoadingVisible(visible bool) {
	if visible {
		p.state.loadingBar.Show()
		p.state.loadingBar.Start()
		return
	}
	p.state.loadingBar.Stop()
	p.state.loadingBar.Hide()
}

func (p *uiPresenter) SetResultsVisible(visible bool) {
	if visible {
		p.state.resultsBox.Show()
		return
	}
	p.state.resultsBox.Hide()
}

func (p *uiPresenter) ShowError(message string) {
	p.state.errLabel.SetText(message)
	p.state.errLabel.Show()
}

func (p *uiPresenter) ClearError() {
	p.state.errLabel.Hide()
}

func (p *uiPresenter) SetTimespan(firstMs, lastMs int64) {
	const f = "Jan 2 15:04:05"
	p.state.spanLabel.SetText(fmt.Sprintf("from %s to %s",
		time.UnixMilli(firstMs).Local().Format(f),
		time.UnixMilli(lastMs).Local().Format(f)))
	p.state.spanLabel.Show()
}

func (p *uiPresenter) HideTimespan() {
	p.state.spanLabel.Hide()
}

func (p *uiPresenter) SetStats(elapsedMs int64, readings int) {
	p.state.statsLabel.SetText(fmt.Sprintf("%d readings in %d ms", readings, elapsedMs))
}
