//go:build windows || linux

package browserprobe_test

import (
	"context"
	"testing"

	"github.com/siguna/dlpagent/internal/browserprobe"
	"github.com/stretchr/testify/assert"
)

func TestGenericProberResolvesKeywordTitlesWithNoDottedDomain(t *testing.T) {
	p := browserprobe.New(nil)

	url, err := p.CurrentURL(context.Background(), "chrome.exe", "ChatGPT")
	assert.NoError(t, err)
	assert.Equal(t, "https://chatgpt.com", url)

	url, err = p.CurrentURL(context.Background(), "firefox.exe", "New chat - ChatGPT")
	assert.NoError(t, err)
	assert.Equal(t, "https://chatgpt.com", url)

	url, err = p.CurrentURL(context.Background(), "msedge.exe", "Claude")
	assert.NoError(t, err)
	assert.Equal(t, "https://claude.ai", url)
}

func TestGenericProberFallsBackToDottedDomainChunk(t *testing.T) {
	p := browserprobe.New(nil)

	url, err := p.CurrentURL(context.Background(), "chrome.exe", "Some Page - example.com - Google Chrome")
	assert.NoError(t, err)
	assert.Equal(t, "example.com", url)
}

func TestGenericProberReturnsEmptyForUnrecognizableTitle(t *testing.T) {
	p := browserprobe.New(nil)

	url, err := p.CurrentURL(context.Background(), "chrome.exe", "Untitled")
	assert.NoError(t, err)
	assert.Equal(t, "", url)
}
