package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	StationID string

	// Wifi join/teardown commands are templates; {ssid} and {password} are
	// replaced before the command is run.
	WifiSSID           string
	WifiPassword       string
	WifiUpCmd          string
	WifiDownCmd        string
	WifiStatePath      string
	MaxConnectAttempts int
	ConnectPollDelay   time.Duration

	WeatherBaseURL string
	WeatherAPIKey  string
	WeatherCity    string
	WeatherUnits   string
	WeatherTimeout time.Duration

	NTPServer  string
	NTPTimeout time.Duration
	TZRule     string

	WakeInterval time.Duration

	// BatteryLowThreshold and BatteryFullScale are hardware calibration
	// values for the voltage divider feeding the ADC, not domain logic.
	BatteryADC          bool
	BatteryI2CBus       string
	BatteryChannel      int
	BatteryLowThreshold int
	BatteryFullScale    int
	IndicatorPin        string

	StorePath string

	Title       string
	FrameOut    string
	FrameWidth  int
	FrameHeight int
	FontPath    string

	// SleepMode "loop" sleeps in-process (dev); "rtcwake" runs RtcwakeCmd,
	// a template where {seconds} is replaced with the wake interval.
	SleepMode  string
	RtcwakeCmd string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	stationID := strings.TrimSpace(os.Getenv("STATION_ID"))
	if stationID == "" {
		stationID = "funky-weather-station"
	}

	wifiSSID := strings.TrimSpace(os.Getenv("WIFI_SSID"))
	wifiPassword := os.Getenv("WIFI_PASSWORD")

	wifiUpCmd := strings.TrimSpace(os.Getenv("WIFI_UP_CMD"))
	if wifiUpCmd == "" {
		wifiUpCmd = "nmcli device wifi connect {ssid} password {password}"
	}
	wifiDownCmd := strings.TrimSpace(os.Getenv("WIFI_DOWN_CMD"))
	if wifiDownCmd == "" {
		wifiDownCmd = "nmcli connection down id {ssid}"
	}
	wifiStatePath := strings.TrimSpace(os.Getenv("WIFI_STATE_PATH"))
	if wifiStatePath == "" {
		wifiStatePath = "/sys/class/net/wlan0/operstate"
	}

	maxAttempts, err := intFromEnv("MAX_CONNECT_ATTEMPTS", 10)
	if err != nil {
		return Config{}, err
	}
	if maxAttempts <= 0 {
		return Config{}, fmt.Errorf("MAX_CONNECT_ATTEMPTS must be positive, got %d", maxAttempts)
	}

	connectPollDelay, err := durationFromEnv("CONNECT_POLL_DELAY", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	if connectPollDelay <= 0 {
		return Config{}, fmt.Errorf("CONNECT_POLL_DELAY must be positive, got %v", connectPollDelay)
	}

	weatherBaseURL := strings.TrimSpace(os.Getenv("WEATHER_BASE_URL"))
	if weatherBaseURL == "" {
		weatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	weatherAPIKey := strings.TrimSpace(os.Getenv("WEATHER_API_KEY"))
	weatherCity := strings.TrimSpace(os.Getenv("WEATHER_CITY"))
	if weatherCity == "" {
		weatherCity = "Boston,US"
	}
	weatherUnits := strings.TrimSpace(os.Getenv("WEATHER_UNITS"))
	if weatherUnits == "" {
		weatherUnits = "imperial"
	}
	switch weatherUnits {
	case "imperial", "metric", "standard":
	default:
		return Config{}, fmt.Errorf("invalid WEATHER_UNITS %q (allowed: imperial, metric, standard)", weatherUnits)
	}
	weatherTimeout, err := durationFromEnv("WEATHER_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	if weatherTimeout <= 0 {
		return Config{}, fmt.Errorf("WEATHER_TIMEOUT must be positive, got %v", weatherTimeout)
	}

	ntpServer := strings.TrimSpace(os.Getenv("NTP_SERVER"))
	if ntpServer == "" {
		ntpServer = "pool.ntp.org"
	}
	ntpTimeout, err := durationFromEnv("NTP_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	if ntpTimeout <= 0 {
		return Config{}, fmt.Errorf("NTP_TIMEOUT must be positive, got %v", ntpTimeout)
	}
	tzRule := strings.TrimSpace(os.Getenv("TZ_RULE"))
	if tzRule == "" {
		tzRule = "EST5EDT,M3.2.0,M11.1.0"
	}

	wakeInterval, err := durationFromEnv("WAKE_INTERVAL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	if wakeInterval <= 0 {
		return Config{}, fmt.Errorf("WAKE_INTERVAL must be positive, got %v", wakeInterval)
	}

	batteryADCStr := strings.TrimSpace(os.Getenv("BATTERY_ADC"))
	if batteryADCStr == "" {
		batteryADCStr = "false"
	}
	batteryADC, err := strconv.ParseBool(batteryADCStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BATTERY_ADC %q: %w", batteryADCStr, err)
	}

	batteryI2CBus := strings.TrimSpace(os.Getenv("BATTERY_I2C_BUS"))

	batteryChannel, err := intFromEnv("BATTERY_CHANNEL", 0)
	if err != nil {
		return Config{}, err
	}
	if batteryChannel < 0 || batteryChannel > 3 {
		return Config{}, fmt.Errorf("BATTERY_CHANNEL must be 0..3, got %d", batteryChannel)
	}

	batteryFullScale, err := intFromEnv("BATTERY_FULL_SCALE", 26400)
	if err != nil {
		return Config{}, err
	}
	if batteryFullScale <= 0 {
		return Config{}, fmt.Errorf("BATTERY_FULL_SCALE must be positive, got %d", batteryFullScale)
	}

	batteryLowThreshold, err := intFromEnv("BATTERY_LOW_THRESHOLD", 11000)
	if err != nil {
		return Config{}, err
	}
	if batteryLowThreshold < 0 || batteryLowThreshold >= batteryFullScale {
		return Config{}, fmt.Errorf("BATTERY_LOW_THRESHOLD must be in [0, BATTERY_FULL_SCALE), got %d", batteryLowThreshold)
	}

	indicatorPin := strings.TrimSpace(os.Getenv("INDICATOR_PIN"))

	storePath := strings.TrimSpace(os.Getenv("STORE_PATH"))
	if storePath == "" {
		storePath = "station.db"
	}

	title := strings.TrimSpace(os.Getenv("TITLE"))
	if title == "" {
		title = "The Funky Weather Station"
	}
	frameOut := strings.TrimSpace(os.Getenv("FRAME_OUT"))
	if frameOut == "" {
		frameOut = "frame.png"
	}
	frameWidth, err := intFromEnv("FRAME_WIDTH", 296)
	if err != nil {
		return Config{}, err
	}
	frameHeight, err := intFromEnv("FRAME_HEIGHT", 128)
	if err != nil {
		return Config{}, err
	}
	if frameWidth <= 0 || frameHeight <= 0 {
		return Config{}, fmt.Errorf("frame size must be positive, got %dx%d", frameWidth, frameHeight)
	}
	fontPath := strings.TrimSpace(os.Getenv("FONT_PATH"))

	sleepMode := strings.TrimSpace(os.Getenv("SLEEP_MODE"))
	if sleepMode == "" {
		sleepMode = "loop"
	}
	switch sleepMode {
	case "loop", "rtcwake":
	default:
		return Config{}, fmt.Errorf("invalid SLEEP_MODE %q (allowed: loop, rtcwake)", sleepMode)
	}
	rtcwakeCmd := strings.TrimSpace(os.Getenv("RTCWAKE_CMD"))
	if rtcwakeCmd == "" {
		rtcwakeCmd = "rtcwake -m mem -s {seconds}"
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	mqttPort, err := intFromEnv("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = stationID
	}

	return Config{
		AppEnv:              appEnv,
		LogLevel:            level,
		StationID:           stationID,
		WifiSSID:            wifiSSID,
		WifiPassword:        wifiPassword,
		WifiUpCmd:           wifiUpCmd,
		WifiDownCmd:         wifiDownCmd,
		WifiStatePath:       wifiStatePath,
		MaxConnectAttempts:  maxAttempts,
		ConnectPollDelay:    connectPollDelay,
		WeatherBaseURL:      weatherBaseURL,
		WeatherAPIKey:       weatherAPIKey,
		WeatherCity:         weatherCity,
		WeatherUnits:        weatherUnits,
		WeatherTimeout:      weatherTimeout,
		NTPServer:           ntpServer,
		NTPTimeout:          ntpTimeout,
		TZRule:              tzRule,
		WakeInterval:        wakeInterval,
		BatteryADC:          batteryADC,
		BatteryI2CBus:       batteryI2CBus,
		BatteryChannel:      batteryChannel,
		BatteryLowThreshold: batteryLowThreshold,
		BatteryFullScale:    batteryFullScale,
		IndicatorPin:        indicatorPin,
		StorePath:           storePath,
		Title:               title,
		FrameOut:            frameOut,
		FrameWidth:          frameWidth,
		FrameHeight:         frameHeight,
		FontPath:            fontPath,
		SleepMode:           sleepMode,
		RtcwakeCmd:          rtcwakeCmd,
		MQTTBroker:          mqttBroker,
		MQTTPort:            mqttPort,
		MQTTClientID:        mqttClientID,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func intFromEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}
