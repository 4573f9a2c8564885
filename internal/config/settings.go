package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Hash schemes understood by the passwords package
const (
	HashSchemeBcrypt    = "bcrypt"
	HashSchemeBcryptMD5 = "bcrypt-md5"
	HashSchemeMD5       = "md5"
	HashSchemeSHA1      = "sha1"
	HashSchemeSHA256    = "sha256"
)

const (
	defaultLoginURL            = "/login"
	defaultLogoutInactiveAfter = 30
	defaultLoginField          = "Username"
)

// Settings is the auth settings file
type Settings struct {
	Hostname            string            `yaml:"hostname" validate:"required"`
	NoHTTPS             bool              `yaml:"no_https"`
	ValidDomains        []string          `yaml:"valid_domains"`
	AuthURLs            []string          `yaml:"auth_urls" validate:"dive,required"`
	NoAuthURLs          []string          `yaml:"no_auth_urls" validate:"dive,required"`
	LoginURL            string            `yaml:"login_url" validate:"required,startswith=/"`
	LoginEntryURL       DomainURL         `yaml:"login_entryurl"`
	ChangePasswordURL   DomainURL         `yaml:"change_password_url"`
	LogoutInactiveAfter int               `yaml:"logout_inactive_after" validate:"gte=1"`
	LoginFields         []string          `yaml:"login_fields" validate:"dive,required"`
	LoginFieldsFormat   map[string]string `yaml:"login_fields_format" validate:"dive,oneof=lower upper trim"`
	SingleSignOnSecret  string            `yaml:"single_sign_on_secret"`
	Hash                HashSettings      `yaml:"hash"`
	Directory           DirectorySettings `yaml:"directory"`
	LoginThrottle       ThrottleSettings  `yaml:"login_throttle"`
}

type HashSettings struct {
	Scheme string `yaml:"scheme" validate:"oneof=bcrypt bcrypt-md5 md5 sha1 sha256"`
	Cost   int    `yaml:"cost" validate:"gte=4,lte=31"`
	Salt   string `yaml:"salt"`
}

// DirectorySettings configures the secondary OpenID Connect directory
type DirectorySettings struct {
	Enabled      bool     `yaml:"enabled"`
	Issuer       string   `yaml:"issuer" validate:"required_if=Enabled true"`
	TokenURL     string   `yaml:"token_url" validate:"omitempty,url"`
	ClientID     string   `yaml:"client_id" validate:"required_if=Enabled true"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

type ThrottleSettings struct {
	PerMinute float64 `yaml:"per_minute" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`
}

// NewSettings returns settings with every default applied
func NewSettings(hostname string) *Settings {
	s := &Settings{Hostname: hostname}
	s.applyDefaults()
	return s
}

// LoadSettings reads, defaults and validates a YAML settings file
func LoadSettings(path string) (*Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseSettings(content)
}

// ParseSettings decodes settings from YAML content
func ParseSettings(content []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings after defaults are applied
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if s.LoginURL == "" {
		s.LoginURL = defaultLoginURL
	}
	if s.LogoutInactiveAfter == 0 {
		s.LogoutInactiveAfter = defaultLogoutInactiveAfter
	}
	if len(s.LoginFields) == 0 {
		s.LoginFields = []string{defaultLoginField}
	}
	if len(s.ValidDomains) == 0 && s.Hostname != "" {
		s.ValidDomains = []string{s.Hostname}
	}
	if s.Hash.Scheme == "" {
		s.Hash.Scheme = HashSchemeBcrypt
	}
	if s.Hash.Cost == 0 {
		s.Hash.Cost = bcrypt.DefaultCost
	}
	if s.LoginThrottle.PerMinute == 0 {
		s.LoginThrottle.PerMinute = 10
	}
	if s.LoginThrottle.Burst == 0 {
		s.LoginThrottle.Burst = 5
	}
}

var _ AuthConfig = (*Settings)(nil)

type AuthConfig interface {
	GetHostname() string
	GetScheme() string
	GetValidDomains() []string
	GetAuthURLs() []string
	GetNoAuthURLs() []string
	GetLoginURL() string
	GetLoginEntryURL() DomainURL
	GetChangePasswordURL() DomainURL
	GetLogoutInactiveAfter() int
	GetKeepAlive() time.Duration
	GetLoginFields() []string
	GetLoginFieldsFormat() map[string]string
	GetSingleSignOnSecret() string
}

func (s *Settings) GetHostname() string {
	return s.Hostname
}

// GetScheme is the scheme used for absolute redirect locations
func (s *Settings) GetScheme() string {
	if s.NoHTTPS {
		return "http"
	}
	return "https"
}

func (s *Settings) GetValidDomains() []string {
	return s.ValidDomains
}

func (s *Settings) GetAuthURLs() []string {
	return s.AuthURLs
}

func (s *Settings) GetNoAuthURLs() []string {
	return s.NoAuthURLs
}

func (s *Settings) GetLoginURL() string {
	return s.LoginURL
}

func (s *Settings) GetLoginEntryURL() DomainURL {
	return s.LoginEntryURL
}

func (s *Settings) GetChangePasswordURL() DomainURL {
	return s.ChangePasswordURL
}

func (s *Settings) GetLogoutInactiveAfter() int {
	return s.LogoutInactiveAfter
}

func (s *Settings) GetLoginFields() []string {
	return s.LoginFields
}

func (s *Settings) GetLoginFieldsFormat() map[string]string {
	return s.LoginFieldsFormat
}

func (s *Settings) GetSingleSignOnSecret() string {
	return s.SingleSignOnSecret
}

// GetKeepAlive is how long a session stays valid after the last click
func (s *Settings) GetKeepAlive() time.Duration {
	return time.Duration(s.LogoutInactiveAfter) * time.Minute
}
