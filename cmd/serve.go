package cmd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/riegel/internal/api"
	"github.com/darmiel/riegel/internal/api/middleware"
	"github.com/darmiel/riegel/internal/token"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the riegel gate server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		log.Info().Msg("Assembling gate...")
		gate, err := f.BuildGate(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if err := gate.Close(); err != nil {
				log.Warn().Err(err).Msg("closing audit trail")
			}
		}()

		if addr == "" {
			addr = gate.Config.Server.Addr
		}
		if addr == "" {
			addr = ":8080"
		}

		signingKey, err := resolveSigningKey(gate)
		if err != nil {
			return err
		}

		throttle := middleware.NewThrottle(gate.Config.Server.Throttle.RPS, gate.Config.Server.Throttle.Burst)

		srv := api.NewServer(gate.Service, gate.Searcher, gate.Evidence, gate.Table, gate.Trail.Key())

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes(signingKey, throttle),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

// resolveSigningKey picks the key that guards the admin surfaces:
// server.admin_key when set, otherwise the signed minter's key so the
// tokens it grants pass verification directly.
func resolveSigningKey(gate *Gate) ([]byte, error) {
	if k := gate.Config.Server.AdminKey; k != "" {
		return []byte(k), nil
	}
	if m, ok := gate.Minter.(*token.SignedMinter); ok {
		return m.SigningKey(), nil
	}

	// Random session tokens carry no role claim, so without an admin
	// key the guarded surfaces stay unreachable.
	log.Warn().Msg("no admin key and no signed token minter configured, admin API will reject every token")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating admin key: %w", err)
	}
	return key, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (defaults to server.addr from config)")
	f.bindConfigFlag(serveCmd.Flags())
}
