package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonMockLocationFiltersMocksTestsSpecs(t *testing.T) {
	cases := map[string]bool{
		"file:///src/user.go":           true,
		"file:///src/user_test.go":      false,
		"file:///src/mocks/user.go":     false,
		"file:///src/user.spec.ts":      false,
		"file:///src/__generated__/x.go": false,
	}
	for path, want := range cases {
		assert.Equal(t, want, nonMockLocation(path), path)
	}
}

func TestStartReturnsErrNoLanguageServerWhenUnconfigured(t *testing.T) {
	_, err := Start(nil, "", ServerCommand{Language: "cobol"})
	assert.ErrorIs(t, err, ErrNoLanguageServer)
}

func TestManagerBridgeReturnsErrNoLanguageServerForUnknownLanguage(t *testing.T) {
	m := NewManager(DefaultServers())
	_, err := m.Bridge(nil, "/tmp/repo", "cobol")
	assert.ErrorIs(t, err, ErrNoLanguageServer)
}
