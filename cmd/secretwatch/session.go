package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/secretwatch/internal/adapter/driven/graph"
	"github.com/ericfisherdev/secretwatch/internal/adapter/driven/keyvault"
	"github.com/ericfisherdev/secretwatch/internal/adapter/driven/oauth"
	"github.com/ericfisherdev/secretwatch/internal/adapter/driven/smtp"
	sqliteadapter "github.com/ericfisherdev/secretwatch/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/secretwatch/internal/application"
	"github.com/ericfisherdev/secretwatch/internal/config"
	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// Identity labels used in errors and logs.
const (
	readerIdentity = "directory-reader"
	mailIdentity   = "mail-sender"
)

// newSessionFactory returns a factory that builds every authenticated
// collaborator from scratch, so each run signs in and resolves secrets anew.
// db is nil unless the local secret store is selected.
func newSessionFactory(cfg *config.Config, db *sqliteadapter.DB) application.SessionFactory {
	return func(ctx context.Context) (*application.Session, error) {
		base := &http.Client{Timeout: cfg.HTTPTimeout}

		secrets, err := openSecretStore(cfg, db, base)
		if err != nil {
			return nil, &model.AuthError{Identity: "secret-store", Err: err}
		}

		reader, err := oauth.NewPasswordGrantProvider(ctx, secrets, passwordGrant(cfg, readerIdentity, cfg.DelegatedUserName, cfg.DelegatedUserSecret), oauth.WithHTTPClient(base))
		if err != nil {
			return nil, err
		}
		readerClient := oauth.NewHTTPClient(ctx, base, reader, graph.DefaultScope)

		mailer, err := newMailer(ctx, cfg, secrets, base)
		if err != nil {
			return nil, err
		}

		return &application.Session{
			Pager:  graph.NewClient(readerClient, cfg.GraphBaseURL),
			Mailer: mailer,
		}, nil
	}
}

func openSecretStore(cfg *config.Config, db *sqliteadapter.DB, base *http.Client) (driven.SecretStore, error) {
	if cfg.SecretStore == config.SecretStoreSQLite {
		return sqliteadapter.NewSecretRepo(db, cfg.SecretKey), nil
	}

	cred, err := keyvault.NewCredential(keyvault.Credentials{
		AuthorityHost: cfg.AuthorityHost,
		TenantID:      cfg.TenantID,
		ClientID:      cfg.VaultClientID,
		ClientSecret:  cfg.VaultClientSecret,
	}, base)
	if err != nil {
		return nil, fmt.Errorf("key vault credentials: %w", err)
	}
	client, err := keyvault.NewClient(cfg.KeyVaultURL, cred, keyvault.WithTransport(base))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func passwordGrant(cfg *config.Config, identity, username, passwordSecret string) oauth.PasswordGrantConfig {
	return oauth.PasswordGrantConfig{
		Identity:           identity,
		AuthorityHost:      cfg.AuthorityHost,
		TenantID:           cfg.TenantID,
		ClientID:           cfg.ClientID,
		ClientSecretName:   cfg.SecretName,
		Username:           username,
		PasswordSecretName: passwordSecret,
	}
}

func newMailer(ctx context.Context, cfg *config.Config, secrets driven.SecretStore, base *http.Client) (driven.Mailer, error) {
	if cfg.MailTransport == config.MailTransportSMTP {
		smtpCfg := smtp.Config{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, Username: cfg.SMTPUsername}
		if cfg.SMTPPasswordName != "" {
			password, err := secrets.GetSecret(ctx, cfg.SMTPPasswordName)
			if err != nil {
				return nil, &model.AuthError{Identity: mailIdentity, Err: err}
			}
			smtpCfg.Password = password
		}
		return smtp.NewMailer(smtpCfg, nil), nil
	}

	// The mail identity has its own provider; it never shares tokens with
	// the directory reader.
	sender, err := oauth.NewPasswordGrantProvider(ctx, secrets, passwordGrant(cfg, mailIdentity, cfg.EmailUserName, cfg.EmailUserSecret), oauth.WithHTTPClient(base))
	if err != nil {
		return nil, err
	}
	return graph.NewMailClient(oauth.NewHTTPClient(ctx, base, sender, graph.DefaultScope), cfg.GraphBaseURL, cfg.EmailUserID), nil
}
