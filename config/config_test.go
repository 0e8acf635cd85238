package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxRequestBytes(t *testing.T) {
	assert.Equal(t, int64(0), (&Config{}).MaxRequestBytes())
	assert.Equal(t, int64(1001)<<20, (&Config{S3MaxUploadMB: 100}).MaxRequestBytes())
	assert.Equal(t, int64(5)<<20, (&Config{S3MaxUploadMB: 100, MaxRequestMB: 5}).MaxRequestBytes())
}
