package browserprobe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/siguna/dlpagent/internal/browserprobe"
	"github.com/stretchr/testify/assert"
)

func TestFakeReturnsConfiguredURL(t *testing.T) {
	f := &browserprobe.Fake{URL: "https://chatgpt.com/chat"}
	url, err := f.CurrentURL(context.Background(), "Google Chrome", "ChatGPT - chatgpt.com")
	assert.NoError(t, err)
	assert.Equal(t, "https://chatgpt.com/chat", url)
}

func TestFakePropagatesError(t *testing.T) {
	f := &browserprobe.Fake{Err: errors.New("probe failed")}
	_, err := f.CurrentURL(context.Background(), "Safari", "")
	assert.Error(t, err)
}
