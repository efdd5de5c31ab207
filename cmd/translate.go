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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/perelay/internal/chat"
	"github.com/valpere/perelay/internal/config"
	"github.com/valpere/perelay/internal/langsig"
	"github.com/valpere/perelay/internal/pipeline"
)

var (
	inputFile  string
	outputFile string
	targetLang string
)

// mediaTypes maps file extensions to attachment media types. Anything else
// is treated as plain text to translate directly.
var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a file from the command line",
	Long: `Translate a single file through the same pipeline the service runs.

Text files are translated directly. Images and PDFs go through the
configured OCR backend first. The target language can be forced with
--target; otherwise it is resolved from the request the way the service
resolves it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if targetLang != "" && !langsig.Valid(langsig.Code(targetLang)) {
			return fmt.Errorf("unsupported target language %q", targetLang)
		}

		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// One-shot runs have no conversation to persist.
		cfg.History.Backend = "none"

		ctx := cmd.Context()
		comp, err := buildComponents(ctx, cfg)
		if err != nil {
			return fmt.Errorf("build components: %w", err)
		}
		defer comp.Close()

		turn := buildTurn(inputFile, raw)

		resp, err := comp.pipe.Handle(ctx, pipeline.Request{
			ConversationID: uuid.New().String(),
			Message:        turn,
		})
		if err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}

		text := resp.PlainText
		if resp.IsStream() {
			var b strings.Builder
			for {
				chunk, err := resp.Stream.Recv()
				b.WriteString(chunk)
				if err != nil {
					if !errors.Is(err, io.EOF) {
						return fmt.Errorf("stream read failed: %w", err)
					}
					break
				}
			}
			text = b.String()
		}

		if outputFile == "" {
			fmt.Println(text)
			return nil
		}
		if dir := filepath.Dir(outputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Translated %s\n", inputFile)
		return nil
	},
}

// buildTurn wraps the file as a user turn: an attachment part for documents,
// an instruction plus the text itself otherwise.
func buildTurn(path string, raw []byte) chat.Turn {
	instruction := "Translate this document"
	if targetLang != "" {
		instruction = fmt.Sprintf("Translate this document to %s", langsig.Code(targetLang).DisplayName())
	}

	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return chat.Turn{Role: chat.RoleUser, Parts: []chat.Part{
			{Type: chat.PartText, Text: instruction},
			{Type: chat.PartFile, MediaType: mt, Data: raw, Filename: filepath.Base(path)},
		}}
	}
	return chat.TextTurn(chat.RoleUser, instruction+":\n\n"+string(raw))
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (stdout if omitted)")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code, e.g. fr or en-US")

	translateCmd.MarkFlagRequired("input")
}
