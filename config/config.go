package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPostsPerPage   = 50
	maxPostsPerPage       = 100
	defaultKeywordLimit   = 15
	defaultMinQueryLength = 2
	defaultRelatedLimit   = 3
	defaultDebounce       = 300 * time.Millisecond
	defaultFetchTimeout   = 30 * time.Second
)

type Config struct {
	config *viper.Viper
}

// Site describes the published site for SEO metadata and absolute URLs.
type Site struct {
	Name        string
	URL         string
	Description string
	Twitter     string
	LinkedIn    string
}

type Author struct {
	Name        string
	Initials    string
	Email       string
	URL         string
	Description string
}

// Category is the taxonomy value assigned to posts that arrive without one.
type Category struct {
	Name string
	Slug string
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	setDefaults(viperConfig)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("wordpress.posts_per_page", defaultPostsPerPage)
	v.SetDefault("wordpress.max_pages", 1)
	v.SetDefault("wordpress.timeout", defaultFetchTimeout)
	v.SetDefault("build.output_dir", "public")
	v.SetDefault("build.images_dir", "assets/images/blog")
	v.SetDefault("build.keyword_limit", defaultKeywordLimit)
	v.SetDefault("taxonomy.default_category_name", "Career Advice")
	v.SetDefault("taxonomy.default_category_slug", "career-advice")
	v.SetDefault("search.min_query_length", defaultMinQueryLength)
	v.SetDefault("search.related_limit", defaultRelatedLimit)
	v.SetDefault("search.debounce", defaultDebounce)
}

// getString prefers the upper-case environment variable over the file key.
func (c *Config) getString(envKey string, fileKey string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(fileKey)
	}

	return value
}

func (c *Config) getInt(envKey string, fileKey string) int {
	if c.config.IsSet(envKey) {
		return c.config.GetInt(envKey)
	}

	return c.config.GetInt(fileKey)
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port")
}

func (c *Config) GetLogLevel() string {
	return c.getString("LOG_LEVEL", "log.level")
}

func (c *Config) GetLogFormat() string {
	return c.getString("LOG_FORMAT", "log.format")
}

func (c *Config) GetKVDBPath() string {
	return c.getString("KVDB_PATH", "database.kvdb_path")
}

func (c *Config) GetIndexPath() string {
	return c.getString("INDEX_PATH", "database.index_path")
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path")
}

func (c *Config) GetWordPressURL() string {
	return c.getString("WORDPRESS_URL", "wordpress.url")
}

// GetPostsPerPage is clamped to the 1..100 range the WordPress REST API accepts.
func (c *Config) GetPostsPerPage() int {
	perPage := c.getInt("POSTS_PER_PAGE", "wordpress.posts_per_page")
	return min(max(1, perPage), maxPostsPerPage)
}

func (c *Config) GetMaxPages() int {
	return max(1, c.getInt("MAX_PAGES", "wordpress.max_pages"))
}

func (c *Config) GetFetchTimeout() time.Duration {
	return c.config.GetDuration("wordpress.timeout")
}

func (c *Config) GetOutputDir() string {
	return c.getString("OUTPUT_DIR", "build.output_dir")
}

// GetImagesDir is relative to the output directory.
func (c *Config) GetImagesDir() string {
	return c.getString("IMAGES_DIR", "build.images_dir")
}

func (c *Config) GetKeywordLimit() int {
	return c.config.GetInt("build.keyword_limit")
}

func (c *Config) GetSearchIndexSource() string {
	return c.getString("SEARCH_INDEX", "search.index_source")
}

func (c *Config) GetMinQueryLength() int {
	return c.config.GetInt("search.min_query_length")
}

func (c *Config) GetRelatedLimit() int {
	return c.config.GetInt("search.related_limit")
}

func (c *Config) GetDebounce() time.Duration {
	return c.config.GetDuration("search.debounce")
}

func (c *Config) GetSite() Site {
	return Site{
		Name:        c.config.GetString("site.name"),
		URL:         c.getString("SITE_URL", "site.url"),
		Description: c.config.GetString("site.description"),
		Twitter:     c.config.GetString("site.twitter"),
		LinkedIn:    c.config.GetString("site.linkedin"),
	}
}

func (c *Config) GetAuthor() Author {
	return Author{
		Name:        c.config.GetString("author.name"),
		Initials:    c.config.GetString("author.initials"),
		Email:       c.config.GetString("author.email"),
		URL:         c.config.GetString("author.url"),
		Description: c.config.GetString("author.description"),
	}
}

func (c *Config) GetDefaultCategory() Category {
	return Category{
		Name: c.config.GetString("taxonomy.default_category_name"),
		Slug: c.config.GetString("taxonomy.default_category_slug"),
	}
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
