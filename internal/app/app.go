package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"periph.io/x/host/v3"

	"github.com/eigenpi/The-Funky-Weather-Station/internal/battery"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/config"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/cycle"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/display"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/netsession"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/power"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/render"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/store"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/telemetry"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/timesync"
	"github.com/eigenpi/The-Funky-Weather-Station/internal/weather"
)

// Run wires the station together and executes wake cycles until the
// context ends. In loop sleep mode each cycle follows the previous one
// in-process; in rtcwake mode the whole host suspends between cycles.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"stationID", cfg.StationID,
		"wakeInterval", cfg.WakeInterval,
		"maxConnectAttempts", cfg.MaxConnectAttempts,
		"sleepMode", cfg.SleepMode,
		"storePath", cfg.StorePath,
		"frameOut", cfg.FrameOut,
		"batteryADC", cfg.BatteryADC,
	)

	rule, err := timesync.ParseRule(cfg.TZRule)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("store close", "error", closeErr)
		}
	}()

	drv, err := display.NewFrameDriver(cfg.FrameWidth, cfg.FrameHeight, cfg.FrameOut, cfg.FontPath, slog.Default())
	if err != nil {
		return err
	}
	renderer := render.New(drv, cfg.FrameWidth, cfg.FrameHeight, slog.Default())

	link := &netsession.CommandLink{
		SSID:      cfg.WifiSSID,
		Password:  cfg.WifiPassword,
		UpCmd:     cfg.WifiUpCmd,
		DownCmd:   cfg.WifiDownCmd,
		StatePath: cfg.WifiStatePath,
	}
	session := netsession.New(link, cfg.MaxConnectAttempts, cfg.ConnectPollDelay, slog.Default())

	fetcher := weather.NewFetcher(
		&weather.HTTPGetter{Client: &http.Client{Timeout: cfg.WeatherTimeout}},
		weather.EndpointURL(cfg.WeatherBaseURL, cfg.WeatherCity, cfg.WeatherAPIKey, cfg.WeatherUnits),
		slog.Default(),
	)

	clock := timesync.NewSynchronizer(
		&timesync.NTPSource{Server: cfg.NTPServer, Timeout: cfg.NTPTimeout},
		rule,
		slog.Default(),
	)

	sampler, err := newSampler(cfg)
	if err != nil {
		return err
	}

	var reporter cycle.Reporter
	if cfg.MQTTBroker != "" {
		pub := telemetry.NewPublisher(cfg.MQTTBroker, cfg.MQTTPort, cfg.MQTTClientID, cfg.StationID, slog.Default())
		defer pub.Disconnect()
		reporter = pub
	}

	var sleeper cycle.Sleeper
	switch cfg.SleepMode {
	case "rtcwake":
		sleeper = power.NewRtcwake(ctx, cfg.RtcwakeCmd, slog.Default())
	default:
		sleeper = power.NewTimer(ctx, slog.Default())
	}

	orch := cycle.New(cycle.Deps{
		Battery:  sampler,
		Session:  session,
		Fetcher:  fetcher,
		Clock:    clock,
		Renderer: renderer,
		Store:    st,
		Sleeper:  sleeper,
		Reporter: reporter,
	}, cycle.Options{
		Title:        cfg.Title,
		UnitSuffix:   unitSuffix(cfg.WeatherUnits),
		WakeInterval: cfg.WakeInterval,
	}, slog.Default())

	for {
		if err := orch.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func newSampler(cfg config.Config) (battery.Sampler, error) {
	if !cfg.BatteryADC {
		// No divider wired up: report full scale so the title stays normal.
		return &battery.Fixed{Raw: cfg.BatteryFullScale, LowThreshold: cfg.BatteryLowThreshold}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return battery.NewADSSampler(cfg.BatteryI2CBus, cfg.BatteryChannel,
		cfg.BatteryLowThreshold, cfg.IndicatorPin, slog.Default())
}

func unitSuffix(units string) string {
	switch units {
	case "metric":
		return "C"
	case "standard":
		return "K"
	default:
		return "F"
	}
}
