package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/glmusage/internal/config"
	"github.com/janekbaraniewski/glmusage/internal/store"
)

func newConfigCommand(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print config, credentials and state locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:      %s\n", *cfgPath)
			fmt.Fprintf(out, "credentials: %s\n", credentialsPathFor(*cfgPath))
			if db, err := store.DefaultDBPath(); err == nil {
				fmt.Fprintf(out, "state:       %s\n", db)
			}
			if logPath, err := store.DefaultLogPath(); err == nil {
				fmt.Fprintf(out, "log:         %s\n", logPath)
			}
			return nil
		},
	}

	setToken := &cobra.Command{
		Use:   "set-token [token]",
		Short: "Store the auth token (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := tokenFromArgs(args, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := config.SaveTokenTo(credentialsPathFor(*cfgPath), token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token %s saved.\n", config.MaskToken(token))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.OutOrStdout(), *cfgPath)
		},
	}

	cmd.AddCommand(path, setToken, show)
	return cmd
}

func tokenFromArgs(args []string, in io.Reader, out io.Writer) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	fmt.Fprint(out, "Auth token: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", config.ErrNoToken
	}
	return token, nil
}

func showConfig(out io.Writer, cfgPath string) error {
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		return err
	}
	creds, _ := config.LoadCredentialsFrom(credentialsPathFor(cfgPath))
	source := "none"
	if token, err := cfg.ResolveToken(creds); err == nil {
		switch {
		case strings.TrimSpace(cfg.AuthToken) != "":
			source = "settings file"
		case strings.TrimSpace(creds.AuthToken) != "":
			source = "credentials file"
		default:
			source = "$" + cfg.AuthTokenEnv
		}
		source += " (" + config.MaskToken(token) + ")"
	}
	if cfg.AuthToken != "" {
		cfg.AuthToken = config.MaskToken(cfg.AuthToken)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintln(out, string(data))
	fmt.Fprintf(out, "token: %s\n", source)
	return nil
}
