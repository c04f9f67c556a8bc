package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestKey generates an Ed25519 key and stores its armored private key.
func writeTestKey(t *testing.T, passphrase string) (string, *openpgp.Entity) {
	t.Helper()
	cfg := &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA}
	entity, err := openpgp.NewEntity("Audit Bot", "test", "audit@example.com", cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	if passphrase != "" {
		require.NoError(t, entity.PrivateKey.Encrypt([]byte(passphrase)))
		require.NoError(t, entity.SerializePrivateWithoutSigning(w, nil))
	} else {
		require.NoError(t, entity.SerializePrivate(w, nil))
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "signing.asc")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path, entity
}

func TestLoadSigner(t *testing.T) {
	t.Run("armored private key", func(t *testing.T) {
		path, entity := writeTestKey(t, "")
		signer, err := loadSigner(path)
		require.NoError(t, err)
		assert.Equal(t, entity.PrimaryKey.Fingerprint, signer.PrimaryKey.Fingerprint)
	})

	t.Run("passphrase protected", func(t *testing.T) {
		path, _ := writeTestKey(t, "hunter2")
		_, err := loadSigner(path)
		assert.ErrorContains(t, err, "passphrase")
	})

	t.Run("public key only", func(t *testing.T) {
		_, entity := writeTestKey(t, "")
		var buf bytes.Buffer
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		require.NoError(t, err)
		require.NoError(t, entity.Serialize(w))
		require.NoError(t, w.Close())

		path := filepath.Join(t.TempDir(), "public.asc")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
		_, err = loadSigner(path)
		assert.ErrorContains(t, err, "no private key")
	})

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.asc")
		require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o644))
		_, err := loadSigner(path)
		assert.Error(t, err)
	})
}

func TestArchive_SignsMetadata(t *testing.T) {
	keyPath, entity := writeTestKey(t, "")
	root := t.TempDir()
	cfg := contract.ArchiveConfig{Enabled: true, RootDir: root, SigningKey: keyPath}
	m, _ := newTestManager(t, cfg, widgetRepo, true)

	entry, err := m.Archive("/src/widget", makeOutput(t), map[string]any{"ticket": "SEC-7"})
	require.NoError(t, err)

	metaPath := filepath.Join(entry.ArchivedOutput, schema.ArchiveMetadataFile)
	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	sig, err := os.ReadFile(filepath.Join(entry.ArchivedOutput, schema.ArchiveSignatureFile))
	require.NoError(t, err)
	assert.Contains(t, string(sig), "BEGIN PGP SIGNATURE")

	keyring := openpgp.EntityList{entity}
	signer, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.PrimaryKey.KeyId, signer.PrimaryKey.KeyId)

	// Tampering breaks verification
	tampered := bytes.Replace(data, []byte("SEC-7"), []byte("SEC-8"), 1)
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(tampered), bytes.NewReader(sig), nil)
	assert.Error(t, err)
}
