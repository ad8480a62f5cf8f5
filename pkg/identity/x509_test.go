package identity

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonNameFromRFC2253(t *testing.T) {
	tests := []struct {
		name    string
		dn      string
		want    string
		wantErr error
	}{
		{"Simple", "CN=device-1,O=Acme,C=DE", "device-1", nil},
		{"NotFirst", "O=Acme,CN=device-1", "device-1", nil},
		{"MostSpecificFirst", "CN=leaf,OU=ops,CN=outer", "leaf", nil},
		{"LowercaseType", "cn=device-1", "device-1", nil},
		{"SpacesAroundSeparators", " CN = device-1 , O = Acme ", "device-1", nil},
		{"EscapedComma", `CN=Doe\, John,O=Acme`, "Doe, John", nil},
		{"EscapedTrailingSpace", `CN=pad\ `, "pad ", nil},
		{"HexEscapes", `CN=caf\C3\A9`, "café", nil},
		{"Quoted", `CN="a,b+c",O=Acme`, "a,b+c", nil},
		{"MultiValued", "OU=ops+CN=device-2,O=Acme", "device-2", nil},
		{"OIDType", "2.5.4.3=device-3", "device-3", nil},
		{"OIDPrefixType", "OID.2.5.4.3=device-4", "device-4", nil},
		{"HexValue", "CN=#0c03616263", "abc", nil},
		{"Semicolon", "O=Acme;CN=semi", "semi", nil},
		{"Missing", "O=Acme,C=DE", "", ErrMissingCommonName},
		{"Empty", "", "", ErrMissingCommonName},
		{"NoEquals", "CN", "", ErrMalformedName},
		{"EmptyType", "=x", "", ErrMalformedName},
		{"DanglingEscape", `CN=abc\`, "", ErrMalformedName},
		{"BadEscape", `CN=a\qb`, "", ErrMalformedName},
		{"Unterminated", `CN="abc`, "", ErrMalformedName},
		{"BadHex", "CN=#zz", "", ErrMalformedName},
		{"TrailingGarbage", `CN="abc"x`, "", ErrMalformedName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommonNameFromRFC2253(tt.dn)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CommonNameFromRFC2253(%q) error = %v, want %v", tt.dn, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CommonNameFromRFC2253(%q) error = %v", tt.dn, err)
			}
			if got != tt.want {
				t.Errorf("CommonNameFromRFC2253(%q) = %q, want %q", tt.dn, got, tt.want)
			}
		})
	}
}

func TestParseRFC2253Order(t *testing.T) {
	attrs, err := ParseRFC2253("CN=a,OU=b+O=c,DC=d")
	require.NoError(t, err)
	assert.Equal(t, []Attribute{
		{Type: "CN", Value: "a"},
		{Type: "OU", Value: "b"},
		{Type: "O", Value: "c"},
		{Type: "DC", Value: "d"},
	}, attrs)
}

func newCert(t *testing.T, tmpl *x509.Certificate) *x509.Certificate {
	t.Helper()
	key := mustKey(t)
	tmpl.SerialNumber = big.NewInt(1)
	tmpl.NotBefore = time.Now().Add(-time.Hour)
	tmpl.NotAfter = time.Now().Add(time.Hour)
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestCommonNameFromCertificate(t *testing.T) {
	cert := newCert(t, &x509.Certificate{Subject: pkix.Name{CommonName: "device-9", Organization: []string{"Acme"}}})
	cn, err := CommonNameFromCertificate(cert)
	require.NoError(t, err)
	assert.Equal(t, "device-9", cn)

	// Round trip through the RFC 2253 rendering.
	cn, err = CommonNameFromRFC2253(cert.Subject.String())
	require.NoError(t, err)
	assert.Equal(t, "device-9", cn)

	noCN := newCert(t, &x509.Certificate{Subject: pkix.Name{Organization: []string{"Acme"}}})
	_, err = CommonNameFromCertificate(noCN)
	assert.ErrorIs(t, err, ErrMissingCommonName)

	_, err = CommonNameFromCertificate(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCanBeUsedForAuthentication(t *testing.T) {
	tests := []struct {
		name       string
		keyUsage   x509.KeyUsage
		extUsage   []x509.ExtKeyUsage
		wantClient bool
		wantServer bool
	}{
		{"NoExtensions", 0, nil, true, true},
		{"SignatureOnly", x509.KeyUsageDigitalSignature, nil, true, true},
		{"NoSignature", x509.KeyUsageKeyEncipherment, nil, false, false},
		{"ClientAuth", x509.KeyUsageDigitalSignature, []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}, true, false},
		{"ServerAuth", 0, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, false, true},
		{"Both", 0, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth}, true, true},
		{"Unrelated", 0, []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := newCert(t, &x509.Certificate{
				Subject:     pkix.Name{CommonName: "x"},
				KeyUsage:    tt.keyUsage,
				ExtKeyUsage: tt.extUsage,
			})
			if got := CanBeUsedForAuthentication(cert, true); got != tt.wantClient {
				t.Errorf("CanBeUsedForAuthentication(client) = %v, want %v", got, tt.wantClient)
			}
			if got := CanBeUsedForAuthentication(cert, false); got != tt.wantServer {
				t.Errorf("CanBeUsedForAuthentication(server) = %v, want %v", got, tt.wantServer)
			}
		})
	}
}

func TestMatchDNSName(t *testing.T) {
	tests := []struct {
		pattern, host string
		want          bool
	}{
		{"lwm2m.example.com", "lwm2m.example.com", true},
		{"lwm2m.example.com", "other.example.com", false},
		{"*.example.com", "lwm2m.example.com", true},
		{"*.example.com", "a.b.example.com", false},
		{"*.example.com", "example.com", false},
		{"*.example.com", ".example.com", false},
	}

	for _, tt := range tests {
		if got := MatchDNSName(tt.pattern, tt.host); got != tt.want {
			t.Errorf("MatchDNSName(%q, %q) = %v, want %v", tt.pattern, tt.host, got, tt.want)
		}
	}
}

func TestMatchSubjectDNSName(t *testing.T) {
	withSAN := newCert(t, &x509.Certificate{
		Subject:  pkix.Name{CommonName: "cn.example.com"},
		DNSNames: []string{"*.lwm2m.example.com"},
	})
	assert.True(t, MatchSubjectDNSName(withSAN, "bs.lwm2m.example.com"))
	assert.False(t, MatchSubjectDNSName(withSAN, "cn.example.com"), "SANs must take precedence over CN")

	cnOnly := newCert(t, &x509.Certificate{Subject: pkix.Name{CommonName: "cn.example.com"}})
	assert.True(t, MatchSubjectDNSName(cnOnly, "cn.example.com"))
	assert.False(t, MatchSubjectDNSName(nil, "cn.example.com"))
}
