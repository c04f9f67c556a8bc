package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// loadSigner reads the first entity holding a usable private key from an
// armored (or binary) key file.
func loadSigner(keyPath string) (*openpgp.Entity, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
	}

	for _, entity := range entities {
		if entity.PrivateKey == nil {
			continue
		}
		if entity.PrivateKey.Encrypted {
			return nil, errors.New("signing key is passphrase protected")
		}
		return entity, nil
	}
	return nil, errors.New("no private key found in signing key file")
}

// signFile writes an armored detached signature of path to path + ".asc".
func signFile(signer *openpgp.Entity, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, signer, bytes.NewReader(data), nil); err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", path, err)
	}

	sigPath := path + ".asc"
	if err := atomicWriteFile(sigPath, sig.Bytes(), 0o644); err != nil {
		return "", err
	}
	return sigPath, nil
}
