package compliance

const (
	defaultMinimumDescriptionLengthConstant = 50
	defaultMailRelayPortConstant            = 25
)

// MailConfiguration describes the mail relay used by SMTPNotifier.
type MailConfiguration struct {
	RelayHost string `mapstructure:"relay_host"`
	RelayPort int    `mapstructure:"relay_port" validate:"gte=0,lte=65535"`
	Sender    string `mapstructure:"sender" validate:"omitempty,email"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// Configuration describes the governance rules.
type Configuration struct {
	Query                    string            `mapstructure:"query"`
	ReferenceItemID          string            `mapstructure:"reference_item_id"`
	MinimumDescriptionLength int               `mapstructure:"minimum_description_length" validate:"gte=0"`
	LicenseText              string            `mapstructure:"license_text"`
	Mail                     MailConfiguration `mapstructure:"mail"`
}

// Sanitize fills unset values with defaults.
func (configuration Configuration) Sanitize() Configuration {
	if configuration.MinimumDescriptionLength <= 0 {
		configuration.MinimumDescriptionLength = defaultMinimumDescriptionLengthConstant
	}
	if configuration.Mail.RelayPort <= 0 {
		configuration.Mail.RelayPort = defaultMailRelayPortConstant
	}
	return configuration
}
