package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthKeysShareThePhonePrefix(t *testing.T) {
	phone := "9876543210"
	prefix := authPhonePrefix(phone)

	// Every credential key for a phone must fall under the prefix the
	// password-reset invalidation wipes
	for _, password := range []string{"543210", "new-secret", "s3cret!"} {
		key := authKey(phone, password)
		assert.True(t, strings.HasPrefix(key, prefix+":"), "key %s outside prefix %s", key, prefix)
	}

	assert.NotEqual(t, authKey(phone, "one"), authKey(phone, "two"))
	assert.NotEqual(t, authPhonePrefix(phone), authPhonePrefix("9123456780"))
}
