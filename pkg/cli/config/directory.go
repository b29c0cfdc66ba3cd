package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/onramp/pkg/domain/interfaces"
	"github.com/secmon-lab/onramp/pkg/domain/types"
	"github.com/secmon-lab/onramp/pkg/service/directory"
	"github.com/urfave/cli/v3"
)

// Directory holds CLI flags for the identity-graph client
type Directory struct {
	token         string `masq:"secret"`
	baseURL       string
	securityGroup string
	appID         string
}

// Flags returns CLI flags for directory configuration
func (x *Directory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "directory-token",
			Usage:       "Bearer token for the identity graph API",
			Category:    "Directory",
			Sources:     cli.EnvVars("ONRAMP_DIRECTORY_TOKEN"),
			Destination: &x.token,
		},
		&cli.StringFlag{
			Name:        "directory-base-url",
			Usage:       "Identity graph API root",
			Category:    "Directory",
			Value:       directory.DefaultBaseURL,
			Sources:     cli.EnvVars("ONRAMP_DIRECTORY_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.StringFlag{
			Name:        "security-group-id",
			Usage:       "Security group whose members are onboarded",
			Category:    "Directory",
			Sources:     cli.EnvVars("ONRAMP_SECURITY_GROUP_ID"),
			Destination: &x.securityGroup,
		},
		&cli.StringFlag{
			Name:        "app-id",
			Usage:       "Catalog ID of the client app provisioned for new users",
			Category:    "Directory",
			Sources:     cli.EnvVars("ONRAMP_APP_ID"),
			Destination: &x.appID,
		},
	}
}

// LogValue never exposes the token itself
func (x Directory) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("token.len", len(x.token)),
		slog.String("base-url", x.baseURL),
		slog.String("security-group", x.securityGroup),
	)
}

// SecurityGroup returns the configured onboarding group ID
func (x *Directory) SecurityGroup() types.GroupID {
	return types.GroupID(x.securityGroup)
}

// AppID returns the provisioned app's catalog ID
func (x *Directory) AppID() string {
	return x.appID
}

// Configure creates the directory client
func (x *Directory) Configure() (interfaces.Directory, error) {
	if x.token == "" {
		return nil, goerr.New("directory-token is required")
	}
	return directory.New(x.token, directory.WithBaseURL(x.baseURL))
}
