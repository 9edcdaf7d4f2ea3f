package cycle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/battery"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/netsession"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/store"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/timesync"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

type fakeSampler struct {
	status battery.Status
	err    error
}

func (s *fakeSampler) Sample(context.Context) (battery.Status, error) {
	return s.status, s.err
}

type fakeSession struct {
	result netsession.Result
}

func (s *fakeSession) Connect(context.Context) netsession.Result { return s.result }

type fakeFetcher struct {
	outcome weather.Outcome
	calls   int
}

func (f *fakeFetcher) Fetch(context.Context) weather.Outcome {
	f.calls++
	return f.outcome
}

type fakeClock struct {
	stamp string
	err   error
}

func (c *fakeClock) SyncAndFormat(context.Context) (string, error) { return c.stamp, c.err }

type recordingRenderer struct {
	payloads []Payload
	err      error
}

func (r *recordingRenderer) Render(p Payload) error {
	r.payloads = append(r.payloads, p)
	return r.err
}

type fakeSleeper struct {
	armed    []time.Duration
	slept    int
	armErr   error
	sleepErr error
}

func (s *fakeSleeper) ArmTimerWakeup(d time.Duration) error {
	s.armed = append(s.armed, d)
	return s.armErr
}

func (s *fakeSleeper) EnterDeepSleep() error {
	s.slept++
	return s.sleepErr
}

type fakeReporter struct {
	reports []Report
	err     error
}

func (r *fakeReporter) ReportCycle(_ context.Context, rep Report) error {
	r.reports = append(r.reports, rep)
	return r.err
}

type harness struct {
	sampler  *fakeSampler
	session  *fakeSession
	fetcher  *fakeFetcher
	clock    *fakeClock
	renderer *recordingRenderer
	store    *store.Memory
	sleeper  *fakeSleeper
	reporter *fakeReporter
	orch     *Orchestrator
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newHarness() *harness {
	h := &harness{
		sampler:  &fakeSampler{status: battery.Status{Raw: 20000, Low: false}},
		session:  &fakeSession{result: netsession.Connected},
		fetcher:  &fakeFetcher{},
		clock:    &fakeClock{stamp: "2026/01/15-07:00:00"},
		renderer: &recordingRenderer{},
		store:    store.NewMemory(),
		sleeper:  &fakeSleeper{},
		reporter: &fakeReporter{},
	}
	h.orch = New(Deps{
		Battery:  h.sampler,
		Session:  h.session,
		Fetcher:  h.fetcher,
		Clock:    h.clock,
		Renderer: h.renderer,
		Store:    h.store,
		Sleeper:  h.sleeper,
		Reporter: h.reporter,
	}, Options{
		Title:        "The Funky Weather Station",
		UnitSuffix:   "F",
		WakeInterval: 30 * time.Minute,
	}, testLogger())
	return h
}

func (h *harness) run(t *testing.T) Payload {
	t.Helper()
	if err := h.orch.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if len(h.renderer.payloads) == 0 {
		t.Fatal("renderer was never invoked")
	}
	return h.renderer.payloads[len(h.renderer.payloads)-1]
}

func success(temp float64, humidity int, icon weather.Icon) weather.Outcome {
	return weather.Outcome{
		Kind:    weather.OutcomeSuccess,
		Reading: weather.Reading{TempF: temp, HumidityPct: humidity, Icon: icon},
	}
}

func TestRun_FreshFetchRendersAndPersists(t *testing.T) {
	h := newHarness()
	h.fetcher.outcome = success(-11.16, 79, weather.IconBrokenClouds)

	p := h.run(t)

	if p.TemperatureText != "-11.2 F" {
		t.Errorf("TemperatureText = %q, want -11.2 F", p.TemperatureText)
	}
	if p.HumidityText != "79%" {
		t.Errorf("HumidityText = %q, want 79%%", p.HumidityText)
	}
	if p.WeatherIcon != weather.IconBrokenClouds {
		t.Errorf("WeatherIcon = %v, want IconBrokenClouds", p.WeatherIcon)
	}
	if p.WarningIconVisible {
		t.Error("WarningIconVisible = true, want false when connected")
	}
	if p.TitleText != "The Funky Weather Station" {
		t.Errorf("TitleText = %q, want configured title", p.TitleText)
	}
	if p.TimestampText != "2026/01/15-07:00:00" {
		t.Errorf("TimestampText = %q, want synced stamp", p.TimestampText)
	}

	got, ok, err := h.store.Load()
	if err != nil {
		t.Fatalf("store load: %v", err)
	}
	if !ok {
		t.Fatal("store not populated after successful fetch")
	}
	want := weather.Reading{TempF: -11.16, HumidityPct: 79, Icon: weather.IconBrokenClouds}
	if got != want {
		t.Errorf("persisted reading = %+v, want exactly %+v", got, want)
	}
}

func TestRun_ConnectivityFailure_NoPriorReading(t *testing.T) {
	h := newHarness()
	h.session.result = netsession.GaveUp

	p := h.run(t)

	if !p.WarningIconVisible {
		t.Error("WarningIconVisible = false, want true on connectivity failure")
	}
	if p.TitleText != "The Funky Weather Station" {
		t.Errorf("TitleText = %q; connectivity must not affect the title", p.TitleText)
	}
	if p.TemperatureText != "N/A" || p.HumidityText != "N/A" {
		t.Errorf("readings = %q/%q, want N/A markers", p.TemperatureText, p.HumidityText)
	}
	if p.WeatherIcon != weather.IconClear {
		t.Errorf("WeatherIcon = %v, want default IconClear", p.WeatherIcon)
	}
	if p.TimestampText != timesync.Placeholder {
		t.Errorf("TimestampText = %q, want placeholder on first boot", p.TimestampText)
	}
	if h.fetcher.calls != 0 {
		t.Errorf("fetcher calls = %d, want 0 when never connected", h.fetcher.calls)
	}

	if _, ok, _ := h.store.Load(); ok {
		t.Error("store mutated on connectivity failure")
	}
}

func TestRun_ConnectivityFailure_ShowsPersistedReading(t *testing.T) {
	h := newHarness()
	prior := weather.Reading{TempF: 71.5, HumidityPct: 44, Icon: weather.IconRain}
	if err := h.store.Save(prior); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	h.session.result = netsession.GaveUp

	p := h.run(t)

	if p.TemperatureText != "71.5 F" {
		t.Errorf("TemperatureText = %q, want reformatted persisted value 71.5 F", p.TemperatureText)
	}
	if p.HumidityText != "44%" {
		t.Errorf("HumidityText = %q, want 44%%", p.HumidityText)
	}
	if p.WeatherIcon != weather.IconRain {
		t.Errorf("WeatherIcon = %v, want icon active when reading was stored", p.WeatherIcon)
	}
	if !p.WarningIconVisible {
		t.Error("WarningIconVisible = false, want true")
	}

	got, ok, _ := h.store.Load()
	if !ok || got != prior {
		t.Errorf("persisted reading = (%+v, %v), want untouched %+v", got, ok, prior)
	}
}

func TestRun_ParseFailure_DistinctMarkerAndNoMutation(t *testing.T) {
	h := newHarness()
	prior := weather.Reading{TempF: 60, HumidityPct: 50, Icon: weather.IconSnow}
	if err := h.store.Save(prior); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	h.fetcher.outcome = weather.Outcome{Kind: weather.OutcomeParseFailure}

	p := h.run(t)

	if p.TemperatureText != "!DATA" || p.HumidityText != "!DATA" {
		t.Errorf("readings = %q/%q, want parse-failure markers", p.TemperatureText, p.HumidityText)
	}
	if p.TemperatureText == "N/A" {
		t.Error("parse-failure marker must differ from the not-available marker")
	}
	if p.WeatherIcon != weather.IconSnow {
		t.Errorf("WeatherIcon = %v, want icon from most recent successful fetch", p.WeatherIcon)
	}
	if p.WarningIconVisible {
		t.Error("WarningIconVisible = true, want false: connectivity succeeded this cycle")
	}

	got, ok, _ := h.store.Load()
	if !ok || got != prior {
		t.Errorf("persisted reading = (%+v, %v), want untouched %+v", got, ok, prior)
	}
}

func TestRun_TransportFailure_MarkerAndCode(t *testing.T) {
	h := newHarness()
	h.fetcher.outcome = weather.Outcome{Kind: weather.OutcomeNetworkFailure, Code: 503}

	p := h.run(t)

	if p.TemperatureText != "ERR" || p.HumidityText != "ERR" {
		t.Errorf("readings = %q/%q, want ERR markers", p.TemperatureText, p.HumidityText)
	}
	if p.WeatherIcon != weather.IconClear {
		t.Errorf("WeatherIcon = %v, want default when no fetch ever succeeded", p.WeatherIcon)
	}
	if _, ok, _ := h.store.Load(); ok {
		t.Error("store mutated on transport failure")
	}
}

func TestRun_LowBatteryReplacesTitleRegardlessOfConnectivity(t *testing.T) {
	for _, result := range []netsession.Result{netsession.Connected, netsession.GaveUp} {
		h := newHarness()
		h.sampler.status = battery.Status{Raw: 10999, Low: true}
		h.session.result = result
		h.fetcher.outcome = success(70, 40, weather.IconClear)

		p := h.run(t)

		if p.TitleText != LowBatteryTitle {
			t.Errorf("%v: TitleText = %q, want low-battery title", result, p.TitleText)
		}
		if result == netsession.GaveUp && !p.WarningIconVisible {
			t.Errorf("%v: warning glyph and low-battery title must coexist", result)
		}
	}
}

func TestRun_TimeSyncUnavailableKeepsPreviousStamp(t *testing.T) {
	h := newHarness()
	h.fetcher.outcome = success(70, 40, weather.IconClear)

	// First cycle syncs fine.
	h.clock.stamp = "2026/01/15-07:00:00"
	p := h.run(t)
	if p.TimestampText != "2026/01/15-07:00:00" {
		t.Fatalf("TimestampText = %q, want synced stamp", p.TimestampText)
	}

	// Second cycle: sync fails, the old stamp stays on display.
	h.clock.err = errors.New("ntp timeout")
	if err := h.orch.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	p = h.renderer.payloads[len(h.renderer.payloads)-1]
	if p.TimestampText != "2026/01/15-07:00:00" {
		t.Errorf("TimestampText = %q, want previous cycle's stamp retained", p.TimestampText)
	}
}

func TestRun_FirstBootTimestampPlaceholder(t *testing.T) {
	h := newHarness()
	h.fetcher.outcome = success(70, 40, weather.IconClear)
	h.clock.err = errors.New("ntp timeout")

	p := h.run(t)
	if p.TimestampText != timesync.Placeholder {
		t.Errorf("TimestampText = %q, want compiled-in placeholder", p.TimestampText)
	}
}

func TestRun_AlwaysReachesSleep(t *testing.T) {
	h := newHarness()
	h.sampler.err = errors.New("adc gone")
	h.session.result = netsession.GaveUp
	h.renderer.err = errors.New("panel stuck")

	if err := h.orch.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil despite failures everywhere", err)
	}
	if len(h.sleeper.armed) != 1 || h.sleeper.armed[0] != 30*time.Minute {
		t.Errorf("armed = %v, want one 30m wake timer", h.sleeper.armed)
	}
	if h.sleeper.slept != 1 {
		t.Errorf("EnterDeepSleep calls = %d, want 1", h.sleeper.slept)
	}
}

func TestRun_PayloadFullyPopulated(t *testing.T) {
	h := newHarness()
	h.session.result = netsession.GaveUp

	p := h.run(t)
	if p.TitleText == "" || p.TemperatureText == "" || p.HumidityText == "" || p.TimestampText == "" {
		t.Errorf("payload has empty fields: %+v", p)
	}
}

func TestRun_ReportsCycleWhenConnected(t *testing.T) {
	h := newHarness()
	h.fetcher.outcome = success(70, 40, weather.IconFewClouds)

	h.run(t)

	if len(h.reporter.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(h.reporter.reports))
	}
	r := h.reporter.reports[0]
	if r.Outcome != "success" || !r.Connected || r.Icon != "few-clouds" {
		t.Errorf("report = %+v, want success/connected/few-clouds", r)
	}
}

func TestRun_NoReportWhenDisconnected(t *testing.T) {
	h := newHarness()
	h.session.result = netsession.GaveUp

	h.run(t)

	if len(h.reporter.reports) != 0 {
		t.Errorf("reports = %d, want 0 without connectivity", len(h.reporter.reports))
	}
}

func TestRun_ReporterFailureDoesNotBlockSleep(t *testing.T) {
	h := newHarness()
	h.fetcher.outcome = success(70, 40, weather.IconClear)
	h.reporter.err = errors.New("broker down")

	h.run(t)

	if h.sleeper.slept != 1 {
		t.Errorf("EnterDeepSleep calls = %d, want 1", h.sleeper.slept)
	}
}
