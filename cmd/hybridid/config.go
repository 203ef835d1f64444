// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"net/url"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/hybridid/internal/config"
	"github.com/holomush/hybridid/internal/logging"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
			if err != nil {
				return oops.Code("OUTPUT_FAILED").Wrap(err)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redactConfig(*cfg))
			if err != nil {
				return oops.Code("OUTPUT_FAILED").Wrap(err)
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return oops.Code("OUTPUT_FAILED").Wrap(err)
			}
			return nil
		},
	})

	return cmd
}

func redactConfig(cfg config.Config) config.Config {
	if cfg.Directory.BindPassword != "" {
		cfg.Directory.BindPassword = logging.Redacted
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil && u.User != nil {
		cfg.Database.URL = u.Redacted()
	}
	return cfg
}
