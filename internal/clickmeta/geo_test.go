package clickmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopLocator(t *testing.T) {
	locator := NopLocator{}
	assert.Nil(t, locator.Locate("203.0.113.7"))
	assert.NoError(t, locator.Close())
}

func TestNewGeoIPLocatorMissingDatabase(t *testing.T) {
	_, err := NewGeoIPLocator("testdata/does-not-exist.mmdb")
	assert.Error(t, err)
}
