package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "partscore"
	driverPostgres = "postgres"
)

// ErrNoAccount is returned for a DSN without a user and host to key the
// password on.
var ErrNoAccount = errors.New("dsn has no user and host")

// PasswordAccount returns the keyring account of a postgres DSN: user@host.
// Both URL ("postgres://user@host/db") and key/value ("host=h user=u")
// forms are accepted.
func PasswordAccount(dsn string) (string, error) {
	var user, host string
	if isURLDSN(dsn) {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("error parsing dsn: %w", err)
		}
		if u.User != nil {
			user = u.User.Username()
		}
		host = u.Host
	} else {
		kv := parseKeyValueDSN(dsn)
		user, host = kv["user"], kv["host"]
		if p := kv["port"]; p != "" && host != "" {
			host = host + ":" + p
		}
	}

	if user == "" || host == "" {
		return "", ErrNoAccount
	}
	return user + "@" + host, nil
}

// SavePassword stores the password for the DSN's account in the OS keyring.
func SavePassword(dsn, password string) error {
	account, err := PasswordAccount(dsn)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password required")
	}
	if err := keyring.Set(keyringService, account, password); err != nil {
		return fmt.Errorf("error saving password to keyring: %w", err)
	}
	return nil
}

// ResolveDSN returns the DSN to connect with. A postgres DSN without a
// password gets the one stored in the keyring for its account, if any.
// Everything else is returned unchanged.
func ResolveDSN(driver, dsn string) string {
	if driver != driverPostgres || hasPassword(dsn) {
		return dsn
	}

	account, err := PasswordAccount(dsn)
	if err != nil {
		return dsn
	}

	password, err := keyring.Get(keyringService, account)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("keyring unavailable", "account", account, "error", err)
		}
		return dsn
	}

	slog.Debug("using keyring password", "account", account)
	return withPassword(dsn, password)
}

func isURLDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func hasPassword(dsn string) bool {
	if isURLDSN(dsn) {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			return false
		}
		_, ok := u.User.Password()
		return ok
	}
	_, ok := parseKeyValueDSN(dsn)["password"]
	return ok
}

func withPassword(dsn, password string) string {
	if isURLDSN(dsn) {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			return dsn
		}
		u.User = url.UserPassword(u.User.Username(), password)
		return u.String()
	}

	quoted := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(password)
	return fmt.Sprintf("%s password='%s'", strings.TrimSpace(dsn), quoted)
}

// parseKeyValueDSN reads the simple "k=v k2=v2" form; quoted values with
// spaces are not supported.
func parseKeyValueDSN(dsn string) map[string]string {
	kv := make(map[string]string)
	for _, part := range strings.Fields(dsn) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		kv[k] = strings.Trim(v, "'")
	}
	return kv
}
