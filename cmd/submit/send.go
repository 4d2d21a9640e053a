package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sngm3741/warranty-services/api/internal/client"
	"github.com/sngm3741/warranty-services/api/internal/evidence"
)

type sendOptions struct {
	relay        string
	form         client.Form
	evidencePath string
	mimeType     string
	profile      string
	timeout      time.Duration
}

func newSendCmd(logger func() *zap.Logger) *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Register a warranty through the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := evidence.ProfileByName(opts.profile)
			if err != nil {
				return err
			}
			file, err := readEvidence(opts.evidencePath, opts.mimeType)
			if err != nil {
				return err
			}
			opts.form.Evidence = file

			normalizer := evidence.NewNormalizer(evidence.WithLogger(logger()))
			sub := client.BuildSubmission(opts.form, normalizer, profile)

			submitter := client.NewSubmitter(
				client.Endpoint(opts.relay),
				client.WithTimeout(opts.timeout),
				client.WithSubmitLogger(logger()),
			)
			res, err := submitter.Submit(cmd.Context(), sub)
			if err != nil {
				return describeSubmitError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered (request %s)\n", res.RequestID)
			if len(res.Upstream) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "upstream: %s\n", res.Upstream)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.relay, "relay", "http://localhost:8080", "relay base URL")
	f.StringVar(&opts.form.FullName, "full-name", "", "customer full name (required)")
	f.StringVar(&opts.form.Address, "address", "", "postal address")
	f.StringVar(&opts.form.Phone, "phone", "", "phone number (required)")
	f.StringVar(&opts.form.Email, "email", "", "email address (required)")
	f.StringVar(&opts.form.Gender, "gender", "", "gender")
	f.StringVar(&opts.form.Birthday, "birthday", "", "birthday, YYYY-MM-DD")
	f.StringVar(&opts.form.PurchaseDate, "purchase-date", "", "purchase date, YYYY-MM-DD (required)")
	f.StringVar(&opts.form.Store, "store", "", "store or sales channel")
	f.StringVar(&opts.evidencePath, "evidence", "", "path to a receipt or product photo (required)")
	f.StringVar(&opts.mimeType, "mime-type", "", "override the detected evidence type")
	f.StringVar(&opts.profile, "profile", "default", "image profile: default or compact")
	f.BoolVar(&opts.form.AgreeToTerms, "agree", false, "accept the warranty terms")
	f.DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "give up waiting for the relay after this long")
	return cmd
}

func describeSubmitError(err error) error {
	var verr *client.ValidationError
	var rerr *client.RelayError
	switch {
	case errors.Is(err, client.ErrTermsNotAccepted):
		return fmt.Errorf("%w (pass --agree after reading GET /warranty/terms)", err)
	case errors.As(err, &verr):
		return fmt.Errorf("fill in every required field and attach evidence: %w", err)
	case errors.Is(err, client.ErrTimeout):
		return fmt.Errorf("submission failed: %w", err)
	case errors.As(err, &rerr):
		return fmt.Errorf("submission failed: %s", rerr.Message)
	}
	return fmt.Errorf("submission failed: %w", err)
}
