package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lwm2m-go/lwm2m/pkg/oscore"
	"github.com/lwm2m-go/lwm2m/pkg/store"
)

// OSCOREOptions holds hex encoded OSCORE input parameters.
type OSCOREOptions struct {
	MasterSecret string
	MasterSalt   string
	SenderID     string
	RecipientID  string
	IDContext    string
	AEAD         int
	HKDF         int
}

// Parameters decodes o.
func (o OSCOREOptions) Parameters() (oscore.Parameters, error) {
	var p oscore.Parameters
	fields := []struct {
		name string
		hex  string
		dst  *[]byte
	}{
		{"master secret", o.MasterSecret, &p.MasterSecret},
		{"master salt", o.MasterSalt, &p.MasterSalt},
		{"sender id", o.SenderID, &p.SenderID},
		{"recipient id", o.RecipientID, &p.RecipientID},
	}
	for _, f := range fields {
		b, err := hex.DecodeString(f.hex)
		if err != nil {
			return p, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = b
	}
	p.AEADAlgorithm = oscore.AEADAlg(o.AEAD)
	p.HMACAlgorithm = oscore.HKDFAlg(o.HKDF)
	return p, nil
}

func (o *OSCOREOptions) flags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.MasterSecret, "secret", "", "master secret (hex)")
	cmd.Flags().StringVar(&o.MasterSalt, "salt", "", "master salt (hex)")
	cmd.Flags().StringVar(&o.SenderID, "sender-id", "", "sender id (hex)")
	cmd.Flags().StringVar(&o.RecipientID, "recipient-id", "", "recipient id (hex)")
	cmd.Flags().IntVar(&o.AEAD, "aead", int(oscore.DefaultAEADAlgorithm), "COSE AEAD algorithm")
	cmd.Flags().IntVar(&o.HKDF, "hkdf", int(oscore.DefaultHKDFAlgorithm), "COSE HKDF algorithm")
}

func oscoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oscore",
		Short: "Derive OSCORE contexts and store OSCORE parameters",
	}

	var derive OSCOREOptions
	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the keys and common IV derived from parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunOSCOREDerive(derive, cmd.OutOrStdout())
		},
	}
	derive.flags(deriveCmd)
	deriveCmd.Flags().StringVar(&derive.IDContext, "id-context", "", "ID context (hex)")

	var (
		put    OSCOREOptions
		dbPath string
	)
	putCmd := &cobra.Command{
		Use:   "put <uri>",
		Short: "Store the parameters used for a server uri",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return RunOSCOREPut(cmd.Context(), db, args[0], put, cmd.OutOrStdout())
		},
	}
	put.flags(putCmd)
	putCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database (env "+EnvDB+")")

	cmd.AddCommand(deriveCmd, putCmd)
	return cmd
}

// RunOSCOREDerive derives a context from opts and writes its keys.
func RunOSCOREDerive(opts OSCOREOptions, w io.Writer) error {
	p, err := opts.Parameters()
	if err != nil {
		return err
	}
	var idContext []byte
	if opts.IDContext != "" {
		if idContext, err = hex.DecodeString(opts.IDContext); err != nil {
			return fmt.Errorf("invalid id context: %w", err)
		}
	}
	ctx, err := oscore.Derive(p, idContext)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "AEAD:          %s\n", ctx.AEADAlgorithm())
	fmt.Fprintf(w, "HKDF:          %s\n", ctx.HKDFAlgorithm())
	fmt.Fprintf(w, "Sender Key:    %x\n", ctx.SenderKey())
	fmt.Fprintf(w, "Recipient Key: %x\n", ctx.RecipientKey())
	fmt.Fprintf(w, "Common IV:     %x\n", ctx.CommonIV())
	return nil
}

// RunOSCOREPut checks that opts derive a context and stores them for uri.
func RunOSCOREPut(ctx context.Context, db *store.DB, uri string, opts OSCOREOptions, w io.Writer) error {
	p, err := opts.Parameters()
	if err != nil {
		return err
	}
	if _, err := oscore.Derive(p, nil); err != nil {
		return err
	}
	if err := db.PutParameters(ctx, uri, p); err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored %s\n", p)
	return nil
}
