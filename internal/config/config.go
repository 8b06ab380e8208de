// Package config loads tiktok-stats settings from defaults, an optional
// yaml file, a .env file and TIKTOK_STATS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	tiktok "github.com/RavensCloud/tiktok-stats"
)

const envPrefix = "TIKTOK_STATS"

type AccountConfig struct {
	// Reference is a share link, a profile URL or a bare username.
	Reference string `mapstructure:"reference"`
}

type HTTPConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"requestInterval"`
	UserAgent       string        `mapstructure:"userAgent"`
	Proxy           string        `mapstructure:"proxy"`
	CookiesFile     string        `mapstructure:"cookiesFile"`
}

// PlatformConfig overrides the built-in TikTok profile. Empty lists keep
// the defaults. Pattern lists are regular expressions whose first capture
// group holds the value.
type PlatformConfig struct {
	APIURL         string   `mapstructure:"apiURL"`
	ProfileURL     string   `mapstructure:"profileURL"`
	Referer        string   `mapstructure:"referer"`
	ShortLinkHosts []string `mapstructure:"shortLinkHosts"`
	MaxDepth       int      `mapstructure:"maxDepth"`

	URLPatterns      []string `mapstructure:"urlPatterns"`
	MarkupPatterns   []string `mapstructure:"markupPatterns"`
	FollowerPatterns []string `mapstructure:"followerPatterns"`
	LikePatterns     []string `mapstructure:"likePatterns"`
	VideoPatterns    []string `mapstructure:"videoPatterns"`

	StatusKeys   []string `mapstructure:"statusKeys"`
	UserKeys     []string `mapstructure:"userKeys"`
	StatsKeys    []string `mapstructure:"statsKeys"`
	FollowerKeys []string `mapstructure:"followerKeys"`
	LikeKeys     []string `mapstructure:"likeKeys"`
	VideoKeys    []string `mapstructure:"videoKeys"`
	ScriptIDs    []string `mapstructure:"scriptIDs"`
}

type BrowserConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver" validate:"required|in:file,redis,mongo"`
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
	Mongo  MongoConfig `mapstructure:"mongo"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Format string `mapstructure:"format" validate:"required|in:console,json"`
}

type MetricsConfig struct {
	// Textfile is where a node-exporter textfile is written after each
	// run. Empty disables metrics.
	Textfile string `mapstructure:"textfile"`
}

type WatchConfig struct {
	// Interval > 0 keeps the process running one cycle per interval.
	Interval time.Duration `mapstructure:"interval"`
}

type CacheConfig struct {
	// Size in MB of the identifier cache used in watch mode. 0 disables it.
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type Config struct {
	Account  AccountConfig  `mapstructure:"account"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Platform PlatformConfig `mapstructure:"platform"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

func setDefaults(v *viper.Viper) {
	p := tiktok.DefaultProfile()

	v.SetDefault("account.reference", "")
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.requestInterval", time.Second)
	v.SetDefault("http.userAgent", "")
	v.SetDefault("http.proxy", "")
	v.SetDefault("http.cookiesFile", "")
	v.SetDefault("platform.apiURL", p.APIURL)
	v.SetDefault("platform.profileURL", p.ProfileURL)
	v.SetDefault("platform.referer", p.Referer)
	v.SetDefault("platform.shortLinkHosts", p.ShortLinkHosts)
	v.SetDefault("platform.maxDepth", p.MaxDepth)
	v.SetDefault("platform.urlPatterns", tiktok.PatternStrings(p.URLPatterns))
	v.SetDefault("platform.markupPatterns", tiktok.PatternStrings(p.MarkupPatterns))
	v.SetDefault("platform.followerPatterns", tiktok.PatternStrings(p.FollowerPatterns))
	v.SetDefault("platform.likePatterns", tiktok.PatternStrings(p.LikePatterns))
	v.SetDefault("platform.videoPatterns", tiktok.PatternStrings(p.VideoPatterns))
	v.SetDefault("platform.statusKeys", p.StatusKeys)
	v.SetDefault("platform.userKeys", p.UserKeys)
	v.SetDefault("platform.statsKeys", p.StatsKeys)
	v.SetDefault("platform.followerKeys", p.FollowerKeys)
	v.SetDefault("platform.likeKeys", p.LikeKeys)
	v.SetDefault("platform.videoKeys", p.VideoKeys)
	v.SetDefault("platform.scriptIDs", p.ScriptIDs)
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.timeout", 20*time.Second)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/stats.json")
	v.SetDefault("store.redis.url", "redis://127.0.0.1:6379/0")
	v.SetDefault("store.redis.key", "tiktok:stats")
	v.SetDefault("store.mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("store.mongo.database", "tiktok-stats")
	v.SetDefault("store.mongo.collection", "stats")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("watch.interval", time.Duration(0))
	v.SetDefault("cache.size", 1)
	v.SetDefault("cache.ttl", 6*time.Hour)
}

// Load builds the configuration. path may be empty, in which case
// ./configs/config.yaml is used when present.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// loadEnvFile loads ENV_FILE when set, otherwise ./.env if it exists.
// Variables already in the environment win over .env.
func loadEnvFile() error {
	if p := os.Getenv("ENV_FILE"); p != "" {
		if err := godotenv.Overload(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate checks field rules and the settings each store driver needs.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("invalid config: http.timeout must be positive")
	}
	if c.HTTP.RequestInterval < 0 {
		return fmt.Errorf("invalid config: http.requestInterval must not be negative")
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("invalid config: watch.interval must not be negative")
	}
	if !strings.Contains(c.Platform.APIURL, "{id}") {
		return fmt.Errorf("invalid config: platform.apiURL must contain {id}")
	}
	if !strings.Contains(c.Platform.ProfileURL, "{id}") {
		return fmt.Errorf("invalid config: platform.profileURL must contain {id}")
	}
	if c.Platform.MaxDepth < 0 || c.Platform.MaxDepth > tiktok.MaxDepthLimit {
		return fmt.Errorf("invalid config: platform.maxDepth must be between 0 and %d", tiktok.MaxDepthLimit)
	}
	for _, l := range c.Platform.patternLists() {
		if _, err := tiktok.CompilePatterns(l.exprs); err != nil {
			return fmt.Errorf("invalid config: platform.%s: %w", l.name, err)
		}
	}

	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("invalid config: store.path is required for the file store")
		}
	case "redis":
		if c.Store.Redis.URL == "" || c.Store.Redis.Key == "" {
			return fmt.Errorf("invalid config: store.redis.url and store.redis.key are required")
		}
	case "mongo":
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" || c.Store.Mongo.Collection == "" {
			return fmt.Errorf("invalid config: store.mongo.uri, database and collection are required")
		}
	}
	return nil
}

// RequireAccount reports an error when no account reference is set. Only
// fetching needs one; writing a reset or sample record does not.
func (c *Config) RequireAccount() error {
	if strings.TrimSpace(c.Account.Reference) == "" {
		return fmt.Errorf("invalid config: account.reference is required (or set %s_ACCOUNT_REFERENCE)", envPrefix)
	}
	return nil
}

type patternList struct {
	name  string
	exprs []string
}

func (pc PlatformConfig) patternLists() []patternList {
	return []patternList{
		{"urlPatterns", pc.URLPatterns},
		{"markupPatterns", pc.MarkupPatterns},
		{"followerPatterns", pc.FollowerPatterns},
		{"likePatterns", pc.LikePatterns},
		{"videoPatterns", pc.VideoPatterns},
	}
}

// Profile returns the default TikTok profile with the platform overrides
// applied. Pattern lists are expected to have passed Validate; a list that
// does not compile keeps its default.
func (c *Config) Profile() tiktok.Profile {
	p := tiktok.DefaultProfile()
	pc := c.Platform
	if pc.APIURL != "" {
		p.APIURL = pc.APIURL
	}
	if pc.ProfileURL != "" {
		p.ProfileURL = pc.ProfileURL
	}
	if pc.Referer != "" {
		p.Referer = pc.Referer
	}
	if pc.MaxDepth > 0 {
		p.MaxDepth = pc.MaxDepth
	}

	overrideStrings(&p.ShortLinkHosts, pc.ShortLinkHosts)
	overrideStrings(&p.StatusKeys, pc.StatusKeys)
	overrideStrings(&p.UserKeys, pc.UserKeys)
	overrideStrings(&p.StatsKeys, pc.StatsKeys)
	overrideStrings(&p.FollowerKeys, pc.FollowerKeys)
	overrideStrings(&p.LikeKeys, pc.LikeKeys)
	overrideStrings(&p.VideoKeys, pc.VideoKeys)
	overrideStrings(&p.ScriptIDs, pc.ScriptIDs)

	overridePatterns(&p.URLPatterns, pc.URLPatterns)
	overridePatterns(&p.MarkupPatterns, pc.MarkupPatterns)
	overridePatterns(&p.FollowerPatterns, pc.FollowerPatterns)
	overridePatterns(&p.LikePatterns, pc.LikePatterns)
	overridePatterns(&p.VideoPatterns, pc.VideoPatterns)
	return p
}

func overrideStrings(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

func overridePatterns(dst *[]*regexp.Regexp, exprs []string) {
	if len(exprs) == 0 {
		return
	}
	if res, err := tiktok.CompilePatterns(exprs); err == nil {
		*dst = res
	}
}
