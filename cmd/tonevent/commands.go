package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ClipFinance/ton-relay-lib/bridge"
	"github.com/ClipFinance/ton-relay-lib/chains/evm/signer"
	"github.com/ClipFinance/ton-relay-lib/chains/evm/utils"
	"github.com/ClipFinance/ton-relay-lib/chains/ton/tvm"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	envEngine = "TONEVENT_ENGINE"
	envSchema = "TONEVENT_SCHEMA"
	envKey    = "TONEVENT_KEY"

	schemaAuto = "auto"
)

// options holds the flags shared by the commands that read a contract.
type options struct {
	logLevel   string
	schema     string
	engine     string
	engineArgs []string
	timeout    time.Duration
	account    string
}

// newRootCmd builds the command tree. A non-nil engine replaces the external
// engine process.
func newRootCmd(logger *logrus.Logger, engine tvm.Engine) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "tonevent",
		Short: "Read TON bridge event contracts and encode relay payloads",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return errors.Wrapf(err, "invalid log level %q", opts.logLevel)
			}
			logger.SetLevel(level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newDetailsCmd(opts, logger, engine),
		newEncodeCmd(opts, logger, engine),
		newSignCmd(opts, logger, engine),
		newEthAddressCmd(),
	)
	return rootCmd
}

func addContractFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.account, "account", "", "File with the account state BOC, raw or base64 (- for stdin)")
	cmd.Flags().StringVar(&opts.schema, "schema", envOr(envSchema, types.SchemaV2.String()), "Event contract schema version (V1, V2, auto)")
	cmd.Flags().StringVar(&opts.engine, "engine", os.Getenv(envEngine), "TVM engine executable")
	cmd.Flags().StringSliceVar(&opts.engineArgs, "engine-arg", nil, "Extra argument passed to the engine")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", types.DefaultEngineTimeout, "Upper bound for a single engine run")
	_ = cmd.MarkFlagRequired("account")
}

func newDetailsCmd(opts *options, logger *logrus.Logger, engine tvm.Engine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details",
		Short: "Print the event details of an event contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, _, err := opts.readDetails(cmd, logger, engine)
			if err != nil {
				return err
			}
			view, err := bridge.NewDetailsView(details)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	addContractFlags(cmd, opts)
	return cmd
}

// payloadFlags holds the flags of the commands that build a relay payload.
type payloadFlags struct {
	eventFile string
	proxyHex  string
}

func addPayloadFlags(cmd *cobra.Command, flags *payloadFlags) {
	cmd.Flags().StringVar(&flags.eventFile, "event", "", "File with the event schema JSON")
	cmd.Flags().StringVar(&flags.proxyHex, "proxy", "", "Destination proxy contract address (required for V2)")
	_ = cmd.MarkFlagRequired("event")
}

// buildPayload reads the contract and encodes its relay payload. V2
// envelopes carry the proxy address, so --proxy is mandatory for them.
func (o *options) buildPayload(cmd *cobra.Command, logger *logrus.Logger, engine tvm.Engine, flags *payloadFlags) (*types.EventDetails, *bridge.Bridge, []byte, error) {
	proxy := common.Address{}
	if flags.proxyHex != "" {
		var err error
		if proxy, err = utils.ParseEthAddress(flags.proxyHex); err != nil {
			return nil, nil, nil, err
		}
	}
	schema, err := os.ReadFile(flags.eventFile)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to read event schema")
	}

	details, b, err := o.readDetails(cmd, logger, engine)
	if err != nil {
		return nil, nil, nil, err
	}
	if version := b.GetConfig().SchemaVersion; version == types.SchemaV2 && flags.proxyHex == "" {
		return nil, nil, nil, errors.Wrapf(relayerrors.ErrInvalidAddress, "--proxy is required for %s events", version)
	}

	payload, err := b.EncodePayload(details, string(schema), proxy)
	if err != nil {
		return nil, nil, nil, err
	}
	return details, b, payload, nil
}

type encodeOutput struct {
	Payload string   `json:"payload"`
	Signers []string `json:"signers"`
}

func newEncodeCmd(opts *options, logger *logrus.Logger, engine tvm.Engine) *cobra.Command {
	flags := &payloadFlags{}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode the relay payload of an event contract and recover its signers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, b, payload, err := opts.buildPayload(cmd, logger, engine, flags)
			if err != nil {
				return err
			}
			signers, err := b.RelaySigners(details, payload)
			if err != nil {
				return err
			}

			out := encodeOutput{Payload: hexutil.Encode(payload), Signers: make([]string, len(signers))}
			for i, s := range signers {
				out.Signers[i] = s.Hex()
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	addContractFlags(cmd, opts)
	addPayloadFlags(cmd, flags)
	return cmd
}

type signOutput struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
}

func newSignCmd(opts *options, logger *logrus.Logger, engine tvm.Engine) *cobra.Command {
	var keyHex string
	flags := &payloadFlags{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign the relay payload of an event contract with a relay key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyHex == "" {
				return errors.Errorf("a relay key is required, use --key or %s", envKey)
			}
			key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
			if err != nil {
				return errors.Wrap(err, "invalid relay key")
			}
			relay, err := signer.NewSigner(key)
			if err != nil {
				return err
			}

			_, _, payload, err := opts.buildPayload(cmd, logger, engine, flags)
			if err != nil {
				return err
			}
			signature, err := relay.Sign(payload)
			if err != nil {
				return err
			}

			logger.WithField("signer", relay.Address().Hex()).Debug("signed relay payload")
			return writeJSON(cmd.OutOrStdout(), signOutput{
				Payload:   hexutil.Encode(payload),
				Signature: hexutil.Encode(signature),
				Signer:    relay.Address().Hex(),
			})
		},
	}
	addContractFlags(cmd, opts)
	addPayloadFlags(cmd, flags)
	cmd.Flags().StringVar(&keyHex, "key", os.Getenv(envKey), "Hex encoded secp256k1 relay key")
	return cmd
}

func newEthAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eth-address <address>",
		Short: "Print an Ethereum address as the decimal integer TON contracts expect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := bridge.EncodeEthAddress(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return err
		},
	}
}

// readDetails reads the account named by the flags and decodes its event
// details. The "auto" schema tries every known version.
func (o *options) readDetails(cmd *cobra.Command, logger *logrus.Logger, engine tvm.Engine) (*types.EventDetails, *bridge.Bridge, error) {
	versions := []types.SchemaVersion{types.ParseSchemaVersion(o.schema)}
	if strings.EqualFold(o.schema, schemaAuto) {
		versions = []types.SchemaVersion{types.SchemaV1, types.SchemaV2}
	}

	registry := bridge.NewRegistry(engine, logger)
	for _, version := range versions {
		config := &types.Config{
			SchemaVersion: version,
			EngineCommand: o.engine,
			EngineArgs:    o.engineArgs,
			EngineTimeout: o.timeout,
			LogLevel:      o.logLevel,
		}
		if err := registry.Add(config); err != nil {
			return nil, nil, err
		}
	}

	state, err := readAccount(cmd.InOrStdin(), o.account)
	if err != nil {
		return nil, nil, err
	}
	return registry.GetDetails(cmd.Context(), state)
}

// readAccount loads an account state BOC given either as raw bytes or as
// base64 text.
func readAccount(stdin io.Reader, path string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read account state")
	}

	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw))); err == nil {
		return decoded, nil
	}
	return raw, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
