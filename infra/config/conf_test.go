package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("DONORPAY_TEST_VALUE", "hello")
	assert.Equal(t, "hello", GetEnv("DONORPAY_TEST_VALUE", "fallback"))

	assert.Equal(t, "fallback", GetEnv("DONORPAY_TEST_MISSING", "fallback"))

	t.Setenv("DONORPAY_TEST_EMPTY", "")
	assert.Equal(t, "fallback", GetEnv("DONORPAY_TEST_EMPTY", "fallback"))
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("DONORPAY_TEST_BOOL", "true")
	assert.True(t, GetBoolEnv("DONORPAY_TEST_BOOL", false))

	t.Setenv("DONORPAY_TEST_BOOL", "0")
	assert.False(t, GetBoolEnv("DONORPAY_TEST_BOOL", true))

	t.Setenv("DONORPAY_TEST_BOOL", "not-a-bool")
	assert.True(t, GetBoolEnv("DONORPAY_TEST_BOOL", true))

	assert.False(t, GetBoolEnv("DONORPAY_TEST_BOOL_MISSING", false))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("DONORPAY_TEST_INT", "42")
	assert.Equal(t, 42, GetIntEnv("DONORPAY_TEST_INT", 7))

	t.Setenv("DONORPAY_TEST_INT", "not-a-number")
	assert.Equal(t, 7, GetIntEnv("DONORPAY_TEST_INT", 7))

	assert.Equal(t, 7, GetIntEnv("DONORPAY_TEST_INT_MISSING", 7))
}

func TestAppSingleton(t *testing.T) {
	first := App()
	second := App()

	assert.Same(t, first, second)
	assert.NotNil(t, first.Validator)
}
