// Package profile resolves Carbon Black Cloud credential profiles from a
// YAML credentials file with environment-variable overrides.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// DefaultName is the profile used when a target URI names none.
const DefaultName = "default"

// EnvCredentialsFile overrides the credentials file location.
const EnvCredentialsFile = "CBC_CREDENTIALS_FILE"

// Profile holds the credentials for one backend instance. Environment
// variables override the file-sourced fields.
type Profile struct {
	URL    string `yaml:"url" env:"CBC_URL"`
	Token  string `yaml:"token" env:"CBC_TOKEN"`
	OrgKey string `yaml:"org_key" env:"CBC_ORG_KEY"`
}

type credentialsFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Path returns the credentials file location: $CBC_CREDENTIALS_FILE when
// set, otherwise ~/.carbonblack/credentials.yaml.
func Path() (string, error) {
	if p := os.Getenv(EnvCredentialsFile); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating credentials file: %w", err)
	}
	return filepath.Join(home, ".carbonblack", "credentials.yaml"), nil
}

// Resolve loads the named profile from the default location. An empty name
// selects the default profile.
func Resolve(name string) (Profile, error) {
	path, err := Path()
	if err != nil {
		return Profile{}, loaderErr(err)
	}
	return Load(path, name)
}

// Load loads the named profile from an explicit credentials file, applies
// environment overrides, and validates the result.
func Load(path, name string) (Profile, error) {
	if name == "" {
		name = DefaultName
	}

	var p Profile
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f credentialsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Profile{}, loaderErr(fmt.Errorf("parse %s: %w", path, err))
		}
		found, ok := f.Profiles[name]
		if !ok && name != DefaultName {
			return Profile{}, loaderErr(fmt.Errorf("profile %q not found in %s", name, path))
		}
		p = found
	case os.IsNotExist(err):
		// No file at all is fine as long as the environment supplies
		// everything; validation below catches the gaps.
	default:
		return Profile{}, loaderErr(fmt.Errorf("read %s: %w", path, err))
	}

	if err := env.Parse(&p); err != nil {
		return Profile{}, loaderErr(fmt.Errorf("environment overrides: %w", err))
	}

	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) validate() error {
	switch {
	case p.URL == "":
		return loaderErr(fmt.Errorf("profile is missing url"))
	case p.Token == "":
		return loaderErr(fmt.Errorf("profile is missing token"))
	case p.OrgKey == "":
		return loaderErr(fmt.Errorf("profile is missing org_key"))
	}
	return nil
}

func loaderErr(err error) error {
	return &types.Error{
		Kind: types.ErrKindLoader,
		Msg:  "resolve credentials",
		Err:  err,
	}
}
