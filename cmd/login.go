package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/riegel/internal/cliconfig"
	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/internal/service"
	"github.com/darmiel/riegel/pkg/client"
)

var loginFactors []string

var loginCmd = &cobra.Command{
	Use:   "login PRINCIPAL",
	Short: "Authenticate a principal through the factor chain",
	Long: `Runs the full multi-factor chain for a principal.

Against a remote server (--server) the command prompts for one answer per
factor and submits them in a single request; the granted session token is
saved locally so later commands (audit log, evidence tag) can use it.
Without a server the gate is assembled locally from --config and the chain
runs interactively on the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		principal := args[0]
		if principal == "" {
			return fmt.Errorf("principal cannot be empty")
		}

		server := f.RemoteAddr
		if server == "" {
			server = viper.GetString(RiegelAddrKey)
		}
		if server == "" {
			return loginLocally(cmd, principal)
		}
		return loginRemote(cmd, principal, server)
	},
}

func loginRemote(cmd *cobra.Command, principal, server string) error {
	u, err := url.Parse(server)
	if err != nil {
		return fmt.Errorf("parsing server URL: %w", err)
	}

	// The HTTP API answers the whole chain from one request, so every
	// factor answer is collected up front.
	responder := newTerminalResponder()
	responses := make(map[string]string, len(loginFactors))
	for _, name := range loginFactors {
		answer, err := responder.Respond(cmd.Context(), core.Challenge{
			Factor:    name,
			Principal: principal,
			Prompt:    fmt.Sprintf("Answer for factor '%s'", name),
			Sensitive: name == "secret",
		})
		if err != nil {
			return fmt.Errorf("reading answer for factor '%s': %w", name, err)
		}
		responses[name] = answer
	}

	cli := client.New(server)

	log.Info().Msgf("Authenticating against %q...", u.Host)

	resp, correlationID, err := cli.Authenticate(cmd.Context(), principal, responses)
	if err != nil {
		log.Error().Msgf("%s authentication failed (correlation ID: %s)", redCross, correlationID)
		log.Error().Msgf("error: %v", err)
		return BeQuietError{}
	}

	cfg, err := cliconfig.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = &cliconfig.CLIConfig{}
	}
	if cfg.Credentials == nil {
		cfg.Credentials = make(map[string]*cliconfig.Credential)
	}
	cfg.Credentials[u.Host] = &cliconfig.Credential{
		Principal: resp.Principal,
		Token:     resp.Token.Value,
	}
	if err := cliconfig.Save(cfg); err != nil {
		return logError(err, correlationID, "login succeeded but could not save credentials")
	}

	logSuccess("access granted for %s (%s)", bold(resp.Principal), resp.Role)
	if resp.Route.Path != "" {
		log.Info().Msgf("landing route: %s", bold(resp.Route.Path))
	}
	logSuccess("saved credentials for %s", bold(u.Host))
	return nil
}

func loginLocally(cmd *cobra.Command, principal string) error {
	gate, err := f.BuildGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := gate.Close(); err != nil {
			log.Warn().Err(err).Msg("closing audit trail")
		}
	}()

	resp, err := gate.Service.Authenticate(cmd.Context(), service.AuthRequest{
		Principal: principal,
		Responder: newTerminalResponder(),
	})
	if err != nil {
		return logError(err, "", "access denied")
	}

	logSuccess("access granted for %s (%s)", bold(resp.Principal), resp.Role)
	log.Info().Msgf("session token: %s", resp.Token.Value)
	if resp.Route.Path != "" {
		log.Info().Msgf("landing route: %s  %s", bold(resp.Route.Path), faint(resp.Route.Description))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringSliceVar(&loginFactors, "factors", []string{"secret", "biometric", "otp"},
		"Factor names to answer when authenticating remotely")
	f.bindConfigFlag(loginCmd.Flags())
}
