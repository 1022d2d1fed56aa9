// Package command provides the saslctl CLI, organized using the cobra
// library the way a small flag-driven CLI typically is: one root
// command, flag-driven, with its work factored into a small unexported
// function the command's RunE calls.
//
//	saslctl loopback -mech SCRAM-SHA-256 -authid alice -password hunter2
package command

import (
	"fmt"
	"log"
	"os"

	"github.com/sasl-go/sasl"
	_ "github.com/sasl-go/sasl/mech/anonymous"
	_ "github.com/sasl-go/sasl/mech/crammd5"
	_ "github.com/sasl-go/sasl/mech/digestmd5"
	_ "github.com/sasl-go/sasl/mech/external"
	_ "github.com/sasl-go/sasl/mech/login"
	_ "github.com/sasl-go/sasl/mech/openid20"
	_ "github.com/sasl-go/sasl/mech/plain"
	_ "github.com/sasl-go/sasl/mech/saml20"
	_ "github.com/sasl-go/sasl/mech/scram/scramsha1"
	_ "github.com/sasl-go/sasl/mech/scram/scramsha256"
	_ "github.com/sasl-go/sasl/mech/securid"
	"github.com/spf13/cobra"
)

var logger *log.Logger

var (
	mechFlag     string
	authIDFlag   string
	authzIDFlag  string
	passwordFlag string
	hostnameFlag string
	serviceFlag  string
	anonFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "saslctl",
	Short: "Drive a loopback SASL client/server exchange",
	Long: `saslctl is a small demonstration CLI for the sasl module. It
constructs one client Session and one server Session for the same
mechanism, sharing a single set of in-process credentials, and steps
them against each other until both sides finish, printing every wire
token exchanged along the way.

It is a consumer of the sasl package, not part of it: production use of
the library never goes through this CLI.`,
	RunE: runLoopback,
}

func init() {
	rootCmd.Flags().StringVar(&mechFlag, "mech", "PLAIN", "mechanism name to exercise")
	rootCmd.Flags().StringVar(&authIDFlag, "authid", "alice", "authentication identity")
	rootCmd.Flags().StringVar(&authzIDFlag, "authzid", "", "authorization identity (defaults to authid)")
	rootCmd.Flags().StringVar(&passwordFlag, "password", "hunter2", "password or passcode")
	rootCmd.Flags().StringVar(&hostnameFlag, "hostname", "localhost", "hostname DIGEST-MD5/CRAM-MD5 challenges embed")
	rootCmd.Flags().StringVar(&serviceFlag, "service", "sasl", "service name DIGEST-MD5's digest-uri embeds")
	rootCmd.Flags().StringVar(&anonFlag, "anonymous-token", "guest@example.com", "trace token ANONYMOUS sends")
}

// Execute runs the root command, exiting with status 1 on error.
func Execute() {
	logger = log.Default()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runLoopback(cmd *cobra.Command, args []string) error {
	name, err := sasl.ParseMechname([]byte(mechFlag))
	if err != nil {
		return fmt.Errorf("invalid mechanism name %q: %w", mechFlag, err)
	}
	if !sasl.IsRegistered(name) {
		return fmt.Errorf("mechanism %q has no registered implementation (imported for its init() side effect?)", name)
	}

	cb, err := newDemoCallback(authIDFlag, authzIDFlag, passwordFlag, hostnameFlag, serviceFlag, anonFlag)
	if err != nil {
		return fmt.Errorf("building demo credentials: %w", err)
	}

	cfg, err := sasl.NewConfigBuilder().
		WithCallback(cb).
		EnableMechanisms(name).
		Build()
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}

	client, err := sasl.NewClientSession(cfg, name)
	if err != nil {
		return fmt.Errorf("starting client session: %w", err)
	}
	server, err := sasl.NewServerSession(cfg, name)
	if err != nil {
		return fmt.Errorf("starting server session: %w", err)
	}

	ok, err := drive(client, server)
	if err != nil {
		return fmt.Errorf("%s exchange failed: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%s exchange completed but the server rejected the credentials", name)
	}
	logger.Printf("%s: authentication succeeded", name)
	return nil
}

// drive alternates Step calls between client and server until both
// report [sasl.StateFinished], logging every token. It returns the
// server's final validation verdict.
func drive(client, server *sasl.Session) (bool, error) {
	var (
		token           []byte
		clientDone      bool
		serverDone      bool
		clientTurnFirst = client.AreWeFirst()
	)

	step := func(s *sasl.Session, who string, in []byte) ([]byte, bool, error) {
		out, state, err := s.Step(in)
		if err != nil {
			return nil, false, err
		}
		logger.Printf("%s -> %q", who, out)
		return out, state == sasl.StateFinished, nil
	}

	if clientTurnFirst {
		var err error
		if token, clientDone, err = step(client, "client", nil); err != nil {
			return false, err
		}
	}

	for !clientDone || !serverDone {
		if !serverDone {
			var err error
			if token, serverDone, err = step(server, "server", token); err != nil {
				return false, err
			}
			if clientDone {
				break
			}
		}
		if !clientDone {
			var err error
			if token, clientDone, err = step(client, "client", token); err != nil {
				return false, err
			}
		}
	}

	v := server.Validation()
	if v == nil {
		return false, nil
	}
	return v.Ok, nil
}
