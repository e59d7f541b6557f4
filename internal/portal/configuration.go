package portal

import "time"

const (
	defaultUserQueryConstant  = "!username:esri_*"
	defaultGroupQueryConstant = "!owner:esri_*"
	defaultItemQueryConstant  = "!owner:esri*"
	defaultMaxItemsConstant   = 10000
	defaultPageSizeConstant   = 100
	defaultTimeoutConstant    = 60 * time.Second
)

// Configuration describes how to reach and query the portal.
type Configuration struct {
	URL               string        `mapstructure:"url" validate:"omitempty,url"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Referer           string        `mapstructure:"referer"`
	VerifyCertificate bool          `mapstructure:"verify_certificate"`
	UserQuery         string        `mapstructure:"user_query"`
	GroupQuery        string        `mapstructure:"group_query"`
	ItemQuery         string        `mapstructure:"item_query"`
	MaxItems          int           `mapstructure:"max_items" validate:"gte=0"`
	PageSize          int           `mapstructure:"page_size" validate:"gte=0,lte=100"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// DefaultConfiguration returns the baseline portal configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		UserQuery:  defaultUserQueryConstant,
		GroupQuery: defaultGroupQueryConstant,
		ItemQuery:  defaultItemQueryConstant,
		MaxItems:   defaultMaxItemsConstant,
		PageSize:   defaultPageSizeConstant,
		Timeout:    defaultTimeoutConstant,
	}
}

// Sanitize fills unset values with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	if len(configuration.UserQuery) == 0 {
		configuration.UserQuery = defaults.UserQuery
	}
	if len(configuration.GroupQuery) == 0 {
		configuration.GroupQuery = defaults.GroupQuery
	}
	if len(configuration.ItemQuery) == 0 {
		configuration.ItemQuery = defaults.ItemQuery
	}
	if configuration.MaxItems <= 0 {
		configuration.MaxItems = defaults.MaxItems
	}
	if configuration.PageSize <= 0 {
		configuration.PageSize = defaults.PageSize
	}
	if configuration.Timeout <= 0 {
		configuration.Timeout = defaults.Timeout
	}
	return configuration
}
