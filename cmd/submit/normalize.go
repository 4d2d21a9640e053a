package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/evidence"
)

type normalizeOptions struct {
	profile  string
	mimeType string
	out      string
}

type normalizeReport struct {
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Bytes        int    `json:"bytes"`
	Strategy     string `json:"strategy"`
	Decoder      string `json:"decoder,omitempty"`
	Encoder      string `json:"encoder,omitempty"`
	SourceWidth  int    `json:"sourceWidth,omitempty"`
	SourceHeight int    `json:"sourceHeight,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

func newNormalizeCmd(logger func() *zap.Logger) *cobra.Command {
	opts := &normalizeOptions{}

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Show how an evidence file would be sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := evidence.ProfileByName(opts.profile)
			if err != nil {
				return err
			}
			file, err := readEvidence(args[0], opts.mimeType)
			if err != nil {
				return err
			}
			if file == nil || file.Empty() {
				return errors.New("evidence file is empty")
			}

			payload, report := evidence.NewNormalizer(evidence.WithLogger(logger())).NormalizeWithReport(*file, profile)
			data, err := base64.StdEncoding.DecodeString(payload.Content)
			if err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}

			if opts.out != "" {
				if err := os.WriteFile(opts.out, data, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(normalizeReport{
				Name:         payload.Name,
				MimeType:     payload.MimeType,
				Bytes:        len(data),
				Strategy:     report.Strategy,
				Decoder:      report.Decoder,
				Encoder:      report.Encoder,
				SourceWidth:  report.SourceWidth,
				SourceHeight: report.SourceHeight,
				Width:        report.Width,
				Height:       report.Height,
				Reason:       report.Reason,
			})
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "default", "image profile: default or compact")
	cmd.Flags().StringVar(&opts.mimeType, "mime-type", "", "override the detected type")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the bytes that would be sent to this path")
	return cmd
}
