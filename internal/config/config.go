package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSheets   = "sheets"
)

const dateLayout = "2006-01-02"

// Config stores runtime configuration for the scraper.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	Clubs                    []club.Club
	FilterActivityTypes      []string
	FilterDateMin            time.Time
	FilterDateMax            time.Time
	TeamRoster               map[string]string
	LeaderboardWeeks         int
	LeaderboardManualEnabled bool

	StoreBackend            string
	DBURL                   string
	DBDisablePreparedBinary bool

	SheetsBaseURL               string
	SheetsSpreadsheetID         string
	SheetsToken                 string
	SheetsTimeout               time.Duration
	SheetsMaxRetries            int
	SheetsCircuitEnabled        bool
	SheetsCircuitFailureCount   int
	SheetsCircuitOpenTimeout    time.Duration
	SheetsCircuitHalfOpenMaxReq int

	StravaBaseURL       string
	StravaSessionCookie string
	StravaTimeout       time.Duration
	StravaMaxRetries    int
	StravaRequestRate   float64
	ScrapeMaxWorkers    int

	GeocoderEnabled   bool
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderMinDelay  time.Duration
	GeocoderCacheTTL  time.Duration

	ResultsFile    string
	ReportTimezone *time.Location

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	reportTimezone, err := time.LoadLocation(getEnv("REPORT_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REPORT_TIMEZONE: %w", err)
	}

	clubIDs := splitCSV(getEnv("CLUB_IDS", ""))
	if len(clubIDs) == 0 {
		return Config{}, fmt.Errorf("CLUB_IDS cannot be empty")
	}
	clubTypes, err := parsePairs(getEnv("CLUB_ACTIVITY_TYPE_MAP", ""), "club_id:activity_type")
	if err != nil {
		return Config{}, fmt.Errorf("parse CLUB_ACTIVITY_TYPE_MAP: %w", err)
	}
	clubs := make([]club.Club, 0, len(clubIDs))
	for _, id := range clubIDs {
		clubs = append(clubs, club.Club{ID: id, ActivityType: club.ActivityType(clubTypes[id])})
	}

	teamRoster, err := parsePairs(getEnv("TEAM_ROSTER", ""), "athlete_id:team")
	if err != nil {
		return Config{}, fmt.Errorf("parse TEAM_ROSTER: %w", err)
	}

	filterDateMin, err := parseDate(getEnv("FILTER_DATE_MIN", ""), reportTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("parse FILTER_DATE_MIN: %w", err)
	}
	filterDateMax, err := parseDate(getEnv("FILTER_DATE_MAX", ""), reportTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("parse FILTER_DATE_MAX: %w", err)
	}
	if !filterDateMin.IsZero() && !filterDateMax.IsZero() && filterDateMin.After(filterDateMax) {
		return Config{}, fmt.Errorf("FILTER_DATE_MIN must not be after FILTER_DATE_MAX")
	}

	leaderboardWeeks, err := getEnvAsInt("LEADERBOARD_WEEKS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_WEEKS: %w", err)
	}
	if leaderboardWeeks < 1 {
		return Config{}, fmt.Errorf("LEADERBOARD_WEEKS must be >= 1")
	}
	leaderboardManualEnabled, err := strconv.ParseBool(getEnv("LEADERBOARD_MANUAL_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_MANUAL_ENABLED: %w", err)
	}

	storeDefault := StoreSheets
	if appEnv == EnvDev {
		storeDefault = StoreMemory
	}
	storeBackend, err := parseStoreBackend(getEnv("STORE_BACKEND", storeDefault))
	if err != nil {
		return Config{}, err
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if storeBackend == StorePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORE_BACKEND=postgres")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	sheetsSpreadsheetID := strings.TrimSpace(getEnv("SHEETS_SPREADSHEET_ID", ""))
	sheetsToken := strings.TrimSpace(getEnv("SHEETS_TOKEN", ""))
	if storeBackend == StoreSheets {
		if sheetsSpreadsheetID == "" {
			return Config{}, fmt.Errorf("SHEETS_SPREADSHEET_ID is required when STORE_BACKEND=sheets")
		}
		if sheetsToken == "" {
			return Config{}, fmt.Errorf("SHEETS_TOKEN is required when STORE_BACKEND=sheets")
		}
	}
	sheetsTimeout, err := time.ParseDuration(getEnv("SHEETS_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_TIMEOUT: %w", err)
	}
	if sheetsTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEETS_TIMEOUT must be > 0")
	}
	sheetsMaxRetries, err := getEnvAsInt("SHEETS_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_MAX_RETRIES: %w", err)
	}
	if sheetsMaxRetries < 0 {
		return Config{}, fmt.Errorf("SHEETS_MAX_RETRIES must be >= 0")
	}
	sheetsCircuitEnabled, err := strconv.ParseBool(getEnv("SHEETS_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_ENABLED: %w", err)
	}
	sheetsCircuitFailureCount, err := getEnvAsInt("SHEETS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if sheetsCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SHEETS_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	sheetsCircuitOpenTimeout, err := time.ParseDuration(getEnv("SHEETS_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if sheetsCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEETS_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	sheetsCircuitHalfOpenMaxReq, err := getEnvAsInt("SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if sheetsCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SHEETS_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	stravaTimeout, err := time.ParseDuration(getEnv("STRAVA_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STRAVA_TIMEOUT: %w", err)
	}
	if stravaTimeout <= 0 {
		return Config{}, fmt.Errorf("STRAVA_TIMEOUT must be > 0")
	}
	stravaMaxRetries, err := getEnvAsInt("STRAVA_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse STRAVA_MAX_RETRIES: %w", err)
	}
	if stravaMaxRetries < 0 {
		return Config{}, fmt.Errorf("STRAVA_MAX_RETRIES must be >= 0")
	}
	stravaRequestRate, err := strconv.ParseFloat(getEnv("STRAVA_REQUEST_RATE", "2"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse STRAVA_REQUEST_RATE: %w", err)
	}
	if stravaRequestRate < 0 {
		return Config{}, fmt.Errorf("STRAVA_REQUEST_RATE must be >= 0")
	}
	scrapeMaxWorkers, err := getEnvAsInt("SCRAPE_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_MAX_WORKERS: %w", err)
	}
	if scrapeMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SCRAPE_MAX_WORKERS must be >= 1")
	}

	geocoderEnabled, err := strconv.ParseBool(getEnv("GEOCODER_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GEOCODER_ENABLED: %w", err)
	}
	geocoderMinDelay, err := time.ParseDuration(getEnv("GEOCODER_MIN_DELAY", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GEOCODER_MIN_DELAY: %w", err)
	}
	if geocoderMinDelay < 0 {
		return Config{}, fmt.Errorf("GEOCODER_MIN_DELAY must be >= 0")
	}
	geocoderCacheTTL, err := time.ParseDuration(getEnv("GEOCODER_CACHE_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GEOCODER_CACHE_TTL: %w", err)
	}
	if geocoderCacheTTL < 0 {
		return Config{}, fmt.Errorf("GEOCODER_CACHE_TTL must be >= 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                      appEnv,
		ServiceName:                 getEnv("APP_SERVICE_NAME", "club-scraper"),
		ServiceVersion:              getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                    logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		Clubs:                       clubs,
		FilterActivityTypes:         splitCSV(getEnv("FILTER_ACTIVITY_TYPES", "")),
		FilterDateMin:               filterDateMin,
		FilterDateMax:               filterDateMax,
		TeamRoster:                  teamRoster,
		LeaderboardWeeks:            leaderboardWeeks,
		LeaderboardManualEnabled:    leaderboardManualEnabled,
		StoreBackend:                storeBackend,
		DBURL:                       dbURL,
		DBDisablePreparedBinary:     dbDisablePreparedBinary,
		SheetsBaseURL:               strings.TrimSpace(getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com/v4")),
		SheetsSpreadsheetID:         sheetsSpreadsheetID,
		SheetsToken:                 sheetsToken,
		SheetsTimeout:               sheetsTimeout,
		SheetsMaxRetries:            sheetsMaxRetries,
		SheetsCircuitEnabled:        sheetsCircuitEnabled,
		SheetsCircuitFailureCount:   sheetsCircuitFailureCount,
		SheetsCircuitOpenTimeout:    sheetsCircuitOpenTimeout,
		SheetsCircuitHalfOpenMaxReq: sheetsCircuitHalfOpenMaxReq,
		StravaBaseURL:               strings.TrimSpace(getEnv("STRAVA_BASE_URL", "https://www.strava.com")),
		StravaSessionCookie:         strings.TrimSpace(getEnv("STRAVA_SESSION_COOKIE", "")),
		StravaTimeout:               stravaTimeout,
		StravaMaxRetries:            stravaMaxRetries,
		StravaRequestRate:           stravaRequestRate,
		ScrapeMaxWorkers:            scrapeMaxWorkers,
		GeocoderEnabled:             geocoderEnabled,
		GeocoderBaseURL:             strings.TrimSpace(getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")),
		GeocoderUserAgent:           strings.TrimSpace(getEnv("GEOCODER_USER_AGENT", "club-scraper")),
		GeocoderMinDelay:            geocoderMinDelay,
		GeocoderCacheTTL:            geocoderCacheTTL,
		ResultsFile:                 strings.TrimSpace(getEnv("RESULTS_FILE", "data/weekly_results.json")),
		ReportTimezone:              reportTimezone,
		UptraceEnabled:              uptraceEnabled,
		UptraceDSN:                  uptraceDSN,
		PyroscopeEnabled:            pyroscopeEnabled,
		PyroscopeServerAddress:      pyroscopeServerAddress,
		PyroscopeAuthToken:          strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:  strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:         pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parsePairs reads "key:value,key:value". expected names the item shape in
// error messages.
func parsePairs(raw, expected string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected %s", item, expected)
		}

		key := strings.TrimSpace(segments[0])
		value := strings.TrimSpace(segments[1])
		if key == "" || value == "" {
			return nil, fmt.Errorf("empty key or value in item %q", item)
		}
		out[key] = value
	}
	return out, nil
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, raw, loc)
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseStoreBackend(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case StoreMemory, StorePostgres, StoreSheets:
		return value, nil
	default:
		return "", fmt.Errorf("invalid STORE_BACKEND %q: valid values are %s, %s, %s", v, StoreMemory, StorePostgres, StoreSheets)
	}
}
