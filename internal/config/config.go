package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrUnknownEnvironment is returned when an environment name is not in the table
var ErrUnknownEnvironment = errors.New("unknown environment")

const (
	authPath         = "/api/admins/auth-with-password"
	collectionPrefix = "/api/collections/"
	recordsSuffix    = "/records"
)

// Backend collection names
const (
	GuestCollection               = "guest"
	PrimaryInvitationCollection   = "primary_invitation"
	SecondaryInvitationCollection = "secondary_invitation"
)

type environment struct {
	envPrefix      string
	defaultBaseURL string
}

// environments is the fixed table of named targets. Credentials are never
// stored here; they come from INVITES_<NAME>_ADMIN_EMAIL/PASSWORD.
var environments = map[string]environment{
	"local": {
		envPrefix:      "INVITES_LOCAL_",
		defaultBaseURL: "http://127.0.0.1:8090",
	},
	"deployed": {
		envPrefix:      "INVITES_DEPLOYED_",
		defaultBaseURL: "https://api.reservation.nichemagazine.me",
	},
}

// Credentials holds the per-environment values read from the process environment
type Credentials struct {
	BaseURL       string `env:"BASE_URL"`
	AdminEmail    string `env:"ADMIN_EMAIL,required,notEmpty"`
	AdminPassword string `env:"ADMIN_PASSWORD,required,notEmpty"`
}

// Endpoints are the backend URLs derived from the base URL
type Endpoints struct {
	Auth                string
	Guest               string
	PrimaryInvitation   string
	SecondaryInvitation string
}

// EraseOrder returns the collections in the order they must be drained:
// invitations reference guests, so both invitation kinds go first.
func (e Endpoints) EraseOrder() []string {
	return []string{e.PrimaryInvitation, e.SecondaryInvitation, e.Guest}
}

// Config is the resolved, immutable configuration of one run
type Config struct {
	Environment   string
	BaseURL       string
	AdminEmail    string
	AdminPassword string
	Endpoints     Endpoints
}

// Names returns the recognised environment names
func Names() []string {
	names := make([]string, 0, len(environments))
	for name := range environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve selects the named environment and derives its endpoints.
// An unknown name yields a zero Config.
func Resolve(name string) (Config, error) {
	target, ok := environments[name]
	if !ok {
		return Config{}, fmt.Errorf("%w %q (use one of: %s)", ErrUnknownEnvironment, name, strings.Join(Names(), ", "))
	}

	var creds Credentials
	if err := env.ParseWithOptions(&creds, env.Options{Prefix: target.envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse %s credentials: %w", name, err)
	}
	if creds.BaseURL == "" {
		creds.BaseURL = target.defaultBaseURL
	}

	base := strings.TrimRight(creds.BaseURL, "/")
	return Config{
		Environment:   name,
		BaseURL:       base,
		AdminEmail:    creds.AdminEmail,
		AdminPassword: creds.AdminPassword,
		Endpoints:     DeriveEndpoints(base),
	}, nil
}

// DeriveEndpoints builds the auth and collection URLs for a base URL
func DeriveEndpoints(baseURL string) Endpoints {
	return Endpoints{
		Auth:                baseURL + authPath,
		Guest:               collectionURL(baseURL, GuestCollection),
		PrimaryInvitation:   collectionURL(baseURL, PrimaryInvitationCollection),
		SecondaryInvitation: collectionURL(baseURL, SecondaryInvitationCollection),
	}
}

func collectionURL(baseURL, collection string) string {
	return baseURL + collectionPrefix + collection + recordsSuffix
}

// Settings holds run options shared by every environment
type Settings struct {
	DataDir         string `env:"INVITES_DATA_DIR" envDefault:"data"`
	OutputPath      string `env:"INVITES_OUTPUT" envDefault:"output_invitations.csv"`
	WeddingDate     string `env:"INVITES_WEDDING_DATE" envDefault:"Saturday, January 1, 2025"`
	WeddingLocation string `env:"INVITES_WEDDING_LOCATION" envDefault:"Venue TBD"`
	BrideName       string `env:"INVITES_BRIDE_NAME" envDefault:"Bride"`
	GroomName       string `env:"INVITES_GROOM_NAME" envDefault:"Groom"`
}

// LoadSettings loads run settings from environment variables or defaults
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}
