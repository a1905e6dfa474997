package data

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/optchain-analytics/internal/chain"
	"github.com/dgnsrekt/optchain-analytics/internal/pricing"
)

const testChain = `{"symbol":"O:SPY250117C00450000","underlying":"SPY","strike":450,"type":"call","expiration":"2025-01-17","last":5.2,"volume":1200,"open_interest":8000}
{"symbol":"O:SPY250117P00450000","underlying":"SPY","strike":450,"type":"put","expiration":"2025-01-17","last":4.1,"volume":900,"open_interest":6000}

{"symbol":"O:SPY250124C00455000","underlying":"SPY","strike":455,"type":"call","expiration":"2025-01-24","last":null,"volume":0,"open_interest":10}
`

func setupSnapshots(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2025-01-10", "SPY", ChainFile), []byte(testChain))
	writeFile(t, filepath.Join(dir, "2025-01-10", "SPY", UnderlyingFile), []byte(`{"ticker":"SPY","date":"2025-01-10","price":451.25}`))

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(testChain))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	writeFile(t, filepath.Join(dir, "2025-01-13", "SPY", ChainFile+".zst"), buf.Bytes())

	writeFile(t, filepath.Join(dir, "notes", "README.txt"), []byte("ignored"))
	return dir
}

func TestSnapshotLoader(t *testing.T) {
	dir := setupSnapshots(t)
	loader, err := NewSnapshotLoader(dir, testLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	asOf := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	contracts, err := loader.FetchContracts(ctx, "spy", exp, asOf)
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, pricing.Call, contracts[0].Type)
	assert.Equal(t, 450.0, contracts[0].Strike)
	assert.Equal(t, int64(8000), contracts[0].OpenInterest)
	assert.Equal(t, chain.SourceSnapshot, contracts[0].Source)

	price, err := loader.FetchUnderlyingPrice(ctx, "SPY", asOf)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 451.25, *price)

	exps, err := loader.Expirations(ctx, "SPY", asOf)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{exp, time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC)}, exps)

	assert.Equal(t, []string{"SPY/2025-01-10", "SPY/2025-01-13"}, loader.GetLoadedKeys())
}

func TestSnapshotLoaderCompressedChainWithoutUnderlying(t *testing.T) {
	loader, err := NewSnapshotLoader(setupSnapshots(t), testLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	asOf := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

	contracts, err := loader.FetchContracts(ctx, "SPY", time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC), asOf)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Nil(t, contracts[0].LastPrice)

	price, err := loader.FetchUnderlyingPrice(ctx, "SPY", asOf)
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestSnapshotLoaderMissingDataIsEmpty(t *testing.T) {
	loader, err := NewSnapshotLoader(setupSnapshots(t), testLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	asOf := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	contracts, err := loader.FetchContracts(ctx, "QQQ", asOf, asOf)
	require.NoError(t, err)
	assert.NotNil(t, contracts)
	assert.Empty(t, contracts)

	exps, err := loader.Expirations(ctx, "QQQ", asOf)
	require.NoError(t, err)
	assert.Empty(t, exps)
}

func TestSnapshotLoaderEmptyDirectory(t *testing.T) {
	_, err := NewSnapshotLoader(t.TempDir(), testLogger(t))
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestSnapshotLoaderSkipsBadFiles(t *testing.T) {
	dir := setupSnapshots(t)
	writeFile(t, filepath.Join(dir, "2025-01-10", "QQQ", ChainFile), []byte("{not json}\n"))

	loader, err := NewSnapshotLoader(dir, testLogger(t))
	require.NoError(t, err)

	contracts, err := loader.FetchContracts(context.Background(), "QQQ",
		time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestWriteChainRoundTrip(t *testing.T) {
	contracts, err := ReadChain(bytes.NewBufferString(testChain), chain.SourceSnapshot)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteChain(&buf, contracts))

	again, err := ReadChain(&buf, chain.SourceSnapshot)
	require.NoError(t, err)
	assert.Equal(t, contracts, again)
}

func TestReadChainRejectsBadType(t *testing.T) {
	_, err := ReadChain(bytes.NewBufferString(`{"underlying":"SPY","strike":1,"type":"future","expiration":"2025-01-17"}`+"\n"), chain.SourceSnapshot)
	assert.Error(t, err)
}
