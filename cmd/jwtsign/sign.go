package main

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bionicotaku/lingo-utils-jwtsign"
)

const (
	flagAlgorithm   = "alg"
	flagExpiresIn   = "exp"
	flagNotBefore   = "nbf"
	flagAudience    = "aud"
	flagIssuer      = "iss"
	flagSubject     = "sub"
	flagJWTID       = "jti"
	flagRandomJWTID = "random-jti"
	flagKeyID       = "kid"
	flagType        = "typ"
	flagNoTimestamp = "no-timestamp"
)

func newSignCommand(state *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sign [payload|-]",
		Short:   "Sign a JSON payload and print the compact token",
		Example: `jwtsign sign '{"role":"admin"}' --key secret --sub user-1 --exp 3600`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			raw, err := readInput(arg, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return fmt.Errorf("payload is not a JSON object: %w", err)
			}

			opts, err := state.signOptions(cmd)
			if err != nil {
				return err
			}
			key, err := state.readKey(cmd)
			if err != nil {
				return err
			}

			token, err := state.settings().Sign(payload, key, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().String(flagAlgorithm, "", "Signing algorithm; defaults to sign.algorithm")
	cmd.Flags().Int64(flagExpiresIn, 0, "Seconds from now until the token expires; defaults to sign.expires_in")
	cmd.Flags().Int64(flagNotBefore, 0, "Seconds from now before the token becomes valid")
	cmd.Flags().StringSlice(flagAudience, nil, "Audience; repeat for several")
	cmd.Flags().String(flagIssuer, "", "Issuer; defaults to sign.issuer")
	cmd.Flags().String(flagSubject, "", "Subject")
	cmd.Flags().String(flagJWTID, "", "Token ID")
	cmd.Flags().Bool(flagRandomJWTID, false, "Use a random UUID as token ID")
	cmd.Flags().String(flagKeyID, "", "Key ID placed in the header; defaults to sign.keyid")
	cmd.Flags().String(flagType, "", "Token type placed in the header, e.g. JWT")
	cmd.Flags().Bool(flagNoTimestamp, false, "Do not add the iat claim")
	cmd.MarkFlagsMutuallyExclusive(flagJWTID, flagRandomJWTID)
	addKeyFlags(cmd)

	return cmd
}

// signOptions merges the sign flags over the sign section of the config.
func (a *app) signOptions(cmd *cobra.Command) (*jwtsign.SignOptions, error) {
	flags := cmd.Flags()
	opts := &jwtsign.SignOptions{
		Algorithm: jwtsign.Algorithm(a.conf.Sign.Algorithm),
		Issuer:    a.conf.Sign.Issuer,
		KeyID:     a.conf.Sign.KeyID,
	}

	if flags.Changed(flagAlgorithm) {
		alg, _ := flags.GetString(flagAlgorithm)
		opts.Algorithm = jwtsign.Algorithm(alg)
	}
	if flags.Changed(flagExpiresIn) {
		exp, _ := flags.GetInt64(flagExpiresIn)
		opts.ExpiresIn = &exp
	} else if a.conf.Sign.ExpiresIn != 0 {
		exp := a.conf.Sign.ExpiresIn
		opts.ExpiresIn = &exp
	}
	if flags.Changed(flagNotBefore) {
		nbf, _ := flags.GetInt64(flagNotBefore)
		opts.NotBefore = &nbf
	}
	if flags.Changed(flagIssuer) {
		opts.Issuer, _ = flags.GetString(flagIssuer)
	}
	if flags.Changed(flagKeyID) {
		opts.KeyID, _ = flags.GetString(flagKeyID)
	}

	opts.Audience, _ = flags.GetStringSlice(flagAudience)
	opts.Subject, _ = flags.GetString(flagSubject)
	opts.JWTID, _ = flags.GetString(flagJWTID)
	opts.NoTimestamp, _ = flags.GetBool(flagNoTimestamp)

	if random, _ := flags.GetBool(flagRandomJWTID); random {
		opts.JWTID = uuid.NewString()
	}
	if typ, _ := flags.GetString(flagType); typ != "" {
		opts.Header = &jwtsign.Header{Type: typ}
	}

	if opts.ExpiresIn != nil && opts.NotBefore != nil && *opts.ExpiresIn <= *opts.NotBefore {
		return nil, errors.New("token would expire before it becomes valid")
	}
	return opts, nil
}
