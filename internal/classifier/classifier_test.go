package classifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/siguna/dlpagent/internal/classifier"
	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassifyTextReturnsVerdictFromServer(t *testing.T) {
	srv := newServer(t, "CODE")
	cl, err := classifier.New(srv.URL, "key", "model", 16, nil)
	require.NoError(t, err)

	item := model.NewText("func main() {}")
	fp := fingerprint.Of(item.CanonicalBytes())

	verdict, err := cl.Classify(context.Background(), fp, item)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictCode, verdict)
}

func TestClassifyMatchesCODESubstringInNonCanonicalReply(t *testing.T) {
	srv := newServer(t, "The content looks like CODE")
	cl, err := classifier.New(srv.URL, "key", "model", 16, nil)
	require.NoError(t, err)

	item := model.NewText("func main() {}")
	fp := fingerprint.Of(item.CanonicalBytes())

	verdict, err := cl.Classify(context.Background(), fp, item)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictCode, verdict, "a reply mentioning CODE anywhere must classify as Code, not misfire on an earlier unrelated letter")
}

func TestClassifyCachesByFingerprint(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "TEXT"}}},
		})
	}))
	defer srv.Close()

	cl, err := classifier.New(srv.URL, "key", "model", 16, nil)
	require.NoError(t, err)

	item := model.NewText("hello world")
	fp := fingerprint.Of(item.CanonicalBytes())

	_, err = cl.Classify(context.Background(), fp, item)
	require.NoError(t, err)
	_, err = cl.Classify(context.Background(), fp, item)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second classify call should be served from cache")
}

func TestClassifySkipsBinaryFile(t *testing.T) {
	srv := newServer(t, "CODE")
	cl, err := classifier.New(srv.URL, "key", "model", 16, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 'a', 'b'}, 0o644))

	item := model.NewFile(path)
	fp := fingerprint.Of(item.CanonicalBytes())

	verdict, err := cl.Classify(context.Background(), fp, item)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictText, verdict, "binary content must never be sent for classification")
}
