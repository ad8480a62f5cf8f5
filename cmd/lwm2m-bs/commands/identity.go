package commands

import (
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/spf13/cobra"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
	"github.com/lwm2m-go/lwm2m/pkg/persistence"
)

// IdentityOptions selects the identity to encode. Exactly one field is set.
type IdentityOptions struct {
	Socket string
	PSK    string
	RPK    string // hex DER SubjectPublicKeyInfo
	X509   string // common name
	OSCORE string // hex recipient id
}

// Peer builds the identity described by o.
func (o IdentityOptions) Peer() (identity.Peer, error) {
	set := 0
	for _, v := range []string{o.Socket, o.PSK, o.RPK, o.X509, o.OSCORE} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return identity.Peer{}, errors.New("exactly one of --socket, --psk, --rpk, --x509 or --oscore is required")
	}

	switch {
	case o.Socket != "":
		addr, err := netip.ParseAddrPort(o.Socket)
		if err != nil {
			return identity.Peer{}, fmt.Errorf("invalid socket address: %w", err)
		}
		return identity.NewSocket(addr)
	case o.PSK != "":
		return identity.NewPSK(o.PSK)
	case o.RPK != "":
		der, err := hex.DecodeString(o.RPK)
		if err != nil {
			return identity.Peer{}, fmt.Errorf("invalid public key: %w", err)
		}
		return identity.NewRPKFromDER(der)
	case o.X509 != "":
		return identity.NewX509(o.X509)
	default:
		rid, err := hex.DecodeString(o.OSCORE)
		if err != nil {
			return identity.Peer{}, fmt.Errorf("invalid recipient id: %w", err)
		}
		return identity.NewOSCORE(rid)
	}
}

func identityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Encode and decode persisted client identities",
	}

	var opts IdentityOptions
	encode := &cobra.Command{
		Use:   "encode",
		Short: "Print the persisted JSON form of an identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunIdentityEncode(opts, cmd.OutOrStdout())
		},
	}
	encode.Flags().StringVar(&opts.Socket, "socket", "", "unsecured peer address (ip:port)")
	encode.Flags().StringVar(&opts.PSK, "psk", "", "PSK identity")
	encode.Flags().StringVar(&opts.RPK, "rpk", "", "raw public key (hex DER)")
	encode.Flags().StringVar(&opts.X509, "x509", "", "certificate common name")
	encode.Flags().StringVar(&opts.OSCORE, "oscore", "", "OSCORE recipient id (hex)")

	decode := &cobra.Command{
		Use:   "decode <json>",
		Short: "Describe a persisted identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunIdentityDecode([]byte(args[0]), cmd.OutOrStdout())
		},
	}

	var client bool
	cert := &cobra.Command{
		Use:   "cert <pem-file>",
		Short: "Print the identity a certificate authenticates as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return RunIdentityCert(data, client, cmd.OutOrStdout())
		},
	}
	cert.Flags().BoolVar(&client, "client", true, "check usage as a client certificate")

	cmd.AddCommand(encode, decode, cert)
	return cmd
}

// RunIdentityEncode writes the JSON form of the identity in opts.
func RunIdentityEncode(opts IdentityOptions, w io.Writer) error {
	p, err := opts.Peer()
	if err != nil {
		return err
	}
	data, err := persistence.MarshalIdentity(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RunIdentityDecode writes the kind and description of a persisted
// identity.
func RunIdentityDecode(data []byte, w io.Writer) error {
	p, err := persistence.UnmarshalIdentity(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Kind:   %s\n", p.Kind())
	fmt.Fprintf(w, "Secure: %t\n", p.IsSecure())
	fmt.Fprintf(w, "%s\n", p)
	return nil
}

// RunIdentityCert writes the X.509 identity of the first certificate in
// the PEM data and whether it may be used for DTLS authentication.
func RunIdentityCert(data []byte, client bool, w io.Writer) error {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return errors.New("no PEM certificate found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	cn, err := identity.CommonNameFromCertificate(cert)
	if err != nil {
		return err
	}
	p, err := identity.NewX509(cn)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", p)
	fmt.Fprintf(w, "Authentication: %t\n", identity.CanBeUsedForAuthentication(cert, client))
	return nil
}
