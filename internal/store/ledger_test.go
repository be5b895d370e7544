package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/models"
)

func testRecord(variation, ad string) models.PublicationRecord {
	return models.PublicationRecord{
		VariationID: variation,
		AdID:        ad,
		CampaignID:  "c1",
		AdSetID:     "s1",
		Headline:    "h",
		Body:        "b",
		CTAText:     "Shop Now",
		PublishedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestLedgerLoadMissingFile(t *testing.T) {
	l := NewLedger(filepath.Join(t.TempDir(), "publications.json"), zap.NewNop())
	assert.Empty(t, l.Load())
}

func TestLedgerLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := NewLedger(path, zap.NewNop())
	assert.Empty(t, l.Load())
}

func TestLedgerAppendGrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.json")
	l := NewLedger(path, zap.NewNop())

	require.NoError(t, l.Append([]models.PublicationRecord{testRecord("A", "a1")}))
	require.NoError(t, l.Append([]models.PublicationRecord{testRecord("B", "a2"), testRecord("C", "a3")}))

	records := l.Load()
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].VariationID)
	assert.Equal(t, "C", records[2].VariationID)

	// A fresh ledger over the same file sees persisted state.
	reloaded := NewLedger(path, zap.NewNop())
	assert.Len(t, reloaded.Load(), 3)
}

func TestLedgerSaveOverwrites(t *testing.T) {
	l := NewLedger(filepath.Join(t.TempDir(), "publications.json"), zap.NewNop())

	require.NoError(t, l.Save([]models.PublicationRecord{testRecord("A", "a1"), testRecord("B", "a2")}))
	require.NoError(t, l.Save([]models.PublicationRecord{testRecord("C", "a3")}))

	records := l.Load()
	require.Len(t, records, 1)
	assert.Equal(t, "C", records[0].VariationID)
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")

	s := NewCredentialStore(path, zap.NewNop())
	assert.False(t, s.Get().Valid(time.Now()))

	cred := models.Credential{
		AccessToken: "tok",
		DisplayName: "Jordan",
		ExpiresAt:   time.Now().Add(time.Hour).UnixMilli(),
	}
	require.NoError(t, s.Set(cred))

	reloaded := NewCredentialStore(path, zap.NewNop())
	assert.Equal(t, cred, reloaded.Get())

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear()) // idempotent
	assert.Empty(t, s.Get().AccessToken)

	reloaded = NewCredentialStore(path, zap.NewNop())
	assert.Empty(t, reloaded.Get().AccessToken)
}

func TestCredentialStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	s := NewCredentialStore(path, zap.NewNop())
	assert.Empty(t, s.Get().AccessToken)
}
