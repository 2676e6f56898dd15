package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Japanese", LanguageName("ja"))
	assert.Equal(t, "Bengali", LanguageName("bn"))
	assert.Equal(t, "English", LanguageName("xx"))
	assert.Equal(t, "English", LanguageName(""))
}

func TestMessageRequired(t *testing.T) {
	assert.Equal(t, "Le message est requis", MessageRequired("fr"))
	assert.Equal(t, "Message is required", MessageRequired("pt"))
}
