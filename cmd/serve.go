/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/perelay/internal/config"
	"github.com/valpere/perelay/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the translation chat HTTP service",
	Long: `Start the HTTP service exposing the chat endpoint.

Backends are selected by configuration: one OCR backend (vision, docscan,
asyncdoc), one translation backend (llm, google), and one history store
(redis, sqlite, none). See the README for the full option list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		comp, err := buildComponents(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("build components: %w", err)
		}
		defer comp.Close()

		comp.log.Info("starting perelay",
			"version", version,
			"ocr", cfg.OCR.Backend,
			"translate", cfg.Translate.Backend,
			"history", cfg.History.Backend,
		)

		srv := server.New(comp.pipe, comp.log)
		return srv.Run(cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}
