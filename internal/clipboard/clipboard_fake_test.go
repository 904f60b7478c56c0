package clipboard_test

import (
	"testing"

	"github.com/siguna/dlpagent/internal/clipboard"
	"github.com/siguna/dlpagent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeTakeEmptiesClipboard(t *testing.T) {
	fake := clipboard.NewFake()
	fake.Seed(model.NewText("hello"))

	item, err := fake.Take()
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "hello", item.Text)

	snap, err := fake.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFakePutRecordsHistory(t *testing.T) {
	fake := clipboard.NewFake()
	require.NoError(t, fake.Put(model.NewText("a")))
	require.NoError(t, fake.Put(model.NewFile("/tmp/x.txt")))

	require.Len(t, fake.PutHistory, 2)
	assert.Equal(t, "a", fake.PutHistory[0].Text)
	assert.Equal(t, "/tmp/x.txt", fake.PutHistory[1].Path)

	snap, err := fake.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, model.KindFile, snap.Kind)
}

func TestFakeFingerprintCurrentEmpty(t *testing.T) {
	fake := clipboard.NewFake()
	assert.Zero(t, fake.FingerprintCurrent())

	fake.Seed(model.NewText("x"))
	assert.NotZero(t, fake.FingerprintCurrent())
}
