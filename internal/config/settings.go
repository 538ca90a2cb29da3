package config

// Settings is the runtime configuration shared by the CLI and the web server.
type Settings struct {
	Driver      string // sqlite, postgres or csv
	DBPath      string // sqlite file or CSV snapshot
	DatabaseURL string // postgres DSN
	Host        string
	Port        int
	Debug       bool
	CORSOrigins []string
	APIKey      string
	CacheSize   int
	Limits      Limits
}

// Limits bound request sizes.
type Limits struct {
	MaxBulkRequests  int     `json:"max_bulk_requests"`
	MaxTextLength    int     `json:"max_text_length"`
	MaxSearchResults int     `json:"max_search_results"`
	MaxAreaResults   int     `json:"max_area_results"`
	MaxRadiusKm      float64 `json:"max_radius_km"`
}

// DefaultLimits mirrors the public API's documented limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBulkRequests:  100,
		MaxTextLength:    10000,
		MaxSearchResults: 100,
		MaxAreaResults:   10000,
		MaxRadiusKm:      50,
	}
}

// Load reads Settings from the environment, after LoadEnv has had a chance to
// populate it from a .env file.
func Load() Settings {
	d := DefaultLimits()
	return Settings{
		Driver:      GetEnv(Prefix+"DB_DRIVER", "sqlite"),
		DBPath:      GetEnv(Prefix+"DB_PATH", "postcodes.db"),
		DatabaseURL: GetEnv(Prefix+"DATABASE_URL", ""),
		Host:        GetEnv(Prefix+"HOST", "0.0.0.0"),
		Port:        GetEnvInt(Prefix+"PORT", 8000),
		Debug:       GetEnvBool(Prefix+"DEBUG", false),
		CORSOrigins: GetEnvList(Prefix+"CORS_ORIGINS", []string{"*"}),
		APIKey:      GetEnv(Prefix+"API_KEY", ""),
		CacheSize:   GetEnvInt(Prefix+"CACHE_SIZE", 10000),
		Limits: Limits{
			MaxBulkRequests:  GetEnvInt(Prefix+"MAX_BULK_REQUESTS", d.MaxBulkRequests),
			MaxTextLength:    GetEnvInt(Prefix+"MAX_TEXT_LENGTH", d.MaxTextLength),
			MaxSearchResults: GetEnvInt(Prefix+"MAX_SEARCH_RESULTS", d.MaxSearchResults),
			MaxAreaResults:   GetEnvInt(Prefix+"MAX_AREA_RESULTS", d.MaxAreaResults),
			MaxRadiusKm:      GetEnvFloat(Prefix+"MAX_RADIUS_KM", d.MaxRadiusKm),
		},
	}
}
