package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Session    SessionConfig    `mapstructure:"session"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Users      UsersConfig      `mapstructure:"users"`
	Output     OutputConfig     `mapstructure:"output"`
	Filters    FilterConfig     `mapstructure:"filters"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Update     UpdateConfig     `mapstructure:"update"`

	// File is the config file that was read; empty when defaults and the
	// environment were enough
	File string `mapstructure:"-"`
}

// APIConfig holds the backend connection details
type APIConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// SessionConfig says where the login token is kept
type SessionConfig struct {
	Path string `mapstructure:"path"`
}

// PaginationConfig holds the page size of each listing and the page cap
// of --all
type PaginationConfig struct {
	MoviesSize   int `mapstructure:"movies_size"`
	CommentsSize int `mapstructure:"comments_size"`
	FriendsSize  int `mapstructure:"friends_size"`
	UsersSize    int `mapstructure:"users_size"`
	MaxPages     int `mapstructure:"max_pages"`
}

// UsersConfig holds the values filled in on registration
type UsersConfig struct {
	DefaultCountry string `mapstructure:"default_country"`
	DefaultPicture string `mapstructure:"default_picture"`
}

// OutputConfig contains console output settings
type OutputConfig struct {
	ShowDetails bool `mapstructure:"show_details"`
	Color       bool `mapstructure:"color"`
}

// FilterConfig maps preset names to filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// UpdateConfig points self-update at a release repository
type UpdateConfig struct {
	Repository string `mapstructure:"repository"`
}
