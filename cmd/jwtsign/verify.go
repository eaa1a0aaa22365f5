package main

import (
	"github.com/spf13/cobra"

	"github.com/bionicotaku/lingo-utils-jwtsign"
)

const (
	flagAlgorithms       = "algs"
	flagIgnoreExpiration = "ignore-exp"
	flagCheckNotBefore   = "check-nbf"
	flagClockTolerance   = "leeway"
)

func newVerifyCommand(state *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "verify [token|-]",
		Short:   "Verify a token and print its claims as JSON",
		Example: "jwtsign verify eyJhbGciOi... --key-file pub.pem --algs RS256 --aud api",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			token, err := readInput(arg, cmd.InOrStdin())
			if err != nil {
				return err
			}
			key, err := state.readKey(cmd)
			if err != nil {
				return err
			}

			opts := state.verifyOptions(cmd)
			settings := state.settings()
			if complete, _ := cmd.Flags().GetBool(flagComplete); complete {
				result, err := settings.VerifyComplete(token, key, opts)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result.ToMap())
			}

			claims, err := settings.Verify(token, key, opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), claims)
		},
	}

	cmd.Flags().StringSlice(flagAlgorithms, nil, "Accepted algorithms; defaults to verify.algorithms, then HS256")
	cmd.Flags().StringSlice(flagAudience, nil, "Accepted audiences; defaults to verify.audience")
	cmd.Flags().StringSlice(flagIssuer, nil, "Accepted issuers; defaults to verify.issuer")
	cmd.Flags().String(flagSubject, "", "Required subject")
	cmd.Flags().String(flagJWTID, "", "Required token ID")
	cmd.Flags().Bool(flagIgnoreExpiration, false, "Skip the exp check")
	cmd.Flags().Bool(flagCheckNotBefore, false, "Check the nbf claim")
	cmd.Flags().Int64(flagClockTolerance, 0, "Clock tolerance in seconds; defaults to verify.clock_tolerance")
	cmd.Flags().Bool(flagComplete, false, "Print header and signature alongside the claims")
	addKeyFlags(cmd)

	return cmd
}

// verifyOptions merges the verify flags over the verify section of the config.
func (a *app) verifyOptions(cmd *cobra.Command) *jwtsign.VerifyOptions {
	flags := cmd.Flags()
	opts := &jwtsign.VerifyOptions{
		Algorithms:     toAlgorithms(a.conf.Verify.Algorithms),
		Audience:       a.conf.Verify.Audience,
		Issuer:         a.conf.Verify.Issuer,
		ClockTolerance: a.conf.Verify.ClockTolerance,
	}

	if flags.Changed(flagAlgorithms) {
		algs, _ := flags.GetStringSlice(flagAlgorithms)
		opts.Algorithms = toAlgorithms(algs)
	}
	if flags.Changed(flagAudience) {
		opts.Audience, _ = flags.GetStringSlice(flagAudience)
	}
	if flags.Changed(flagIssuer) {
		opts.Issuer, _ = flags.GetStringSlice(flagIssuer)
	}
	if flags.Changed(flagClockTolerance) {
		opts.ClockTolerance, _ = flags.GetInt64(flagClockTolerance)
	}

	opts.Subject, _ = flags.GetString(flagSubject)
	opts.JWTID, _ = flags.GetString(flagJWTID)
	opts.IgnoreExpiration, _ = flags.GetBool(flagIgnoreExpiration)
	opts.ValidateNotBefore, _ = flags.GetBool(flagCheckNotBefore)
	return opts
}
