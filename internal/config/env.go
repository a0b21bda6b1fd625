package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Environment holds the publish inputs read from the process environment.
// The variable names match the ones GitHub Actions exports to workflow steps.
type Environment struct {
	Repository string `env:"GITHUB_REPOSITORY" env-description:"owner/name of the repository to push to"`
	Token      string `env:"GITHUB_TOKEN" env-description:"token embedded in the push remote URL"`
	RefName    string `env:"GITHUB_REF_NAME" env-description:"branch to rebase onto and push to"`
	ServerURL  string `env:"GITHUB_SERVER_URL" env-description:"git server base URL (overrides publish.server_url)"`
	APIURL     string `env:"GITHUB_API_URL" env-description:"GitHub API URL used to mint GitHub App installation tokens"`

	AppID          int64  `env:"GITHUB_APP_ID" env-description:"GitHub App id; enables installation tokens instead of GITHUB_TOKEN"`
	InstallationID int64  `env:"GITHUB_APP_INSTALLATION_ID" env-description:"GitHub App installation id"`
	PrivateKeyFile string `env:"GITHUB_APP_PRIVATE_KEY_FILE" env-description:"path to the GitHub App private key (PEM)"`
}

func LoadEnvironment() (*Environment, error) {
	var env Environment
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &env, nil
}

// EnvironmentUsage describes the variables read by LoadEnvironment.
func EnvironmentUsage() string {
	header := "Environment variables:"
	desc, err := cleanenv.GetDescription(&Environment{}, &header)
	if err != nil {
		return ""
	}
	return desc
}

// Branch returns the configured branch name without a refs/heads/ prefix,
// or the empty string when none is set.
func (e *Environment) Branch() string {
	return strings.TrimPrefix(strings.TrimSpace(e.RefName), "refs/heads/")
}

// GitHubApp reports whether GitHub App credentials are configured.
func (e *Environment) GitHubApp() bool {
	return e.AppID != 0 && e.InstallationID != 0 && e.PrivateKeyFile != ""
}
