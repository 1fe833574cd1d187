package keyvault

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Credentials selects how the process authenticates to the vault. With a
// ClientID the app signs in with its own client secret; otherwise the Azure
// default chain is used, which covers the host's managed identity.
type Credentials struct {
	AuthorityHost string
	TenantID      string
	ClientID      string
	ClientSecret  string
}

// NewCredential builds the token credential for creds. transport may be nil.
func NewCredential(creds Credentials, transport policy.Transporter) (azcore.TokenCredential, error) {
	opts := azcore.ClientOptions{Cloud: cloudFor(creds.AuthorityHost)}
	if transport != nil {
		opts.Transport = transport
	}

	if creds.ClientID != "" {
		cred, err := azidentity.NewClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret,
			&azidentity.ClientSecretCredentialOptions{ClientOptions: opts})
		if err != nil {
			return nil, fmt.Errorf("client secret credential: %w", err)
		}
		return cred, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		ClientOptions: opts,
		TenantID:      creds.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("default azure credential: %w", err)
	}
	return cred, nil
}

// cloudFor returns the public cloud with its authority host replaced.
func cloudFor(authorityHost string) cloud.Configuration {
	c := cloud.AzurePublic
	if authorityHost != "" {
		c.ActiveDirectoryAuthorityHost = strings.TrimRight(authorityHost, "/") + "/"
	}
	return c
}
