package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
)

func TestPrompter_ChooseByNumberAndID(t *testing.T) {
	options := []domain.ClarifyOption{
		{ID: "a", Label: "Convert to PNG", ResolvedIntent: "convert a.jpg to png"},
		{ID: "b", Label: "Resize", Detail: "half size", ResolvedIntent: "resize a.jpg"},
	}

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("9\n2\n"), &out)
	id, err := p.Choose("Which?", options)
	require.NoError(t, err)
	assert.Equal(t, "b", id)
	assert.Contains(t, out.String(), `Unknown option "9"`)
	assert.Contains(t, out.String(), "1) Convert to PNG")

	p = NewPrompter(strings.NewReader("A"), &out)
	id, err = p.Choose("Which?", options)
	require.NoError(t, err)
	assert.Equal(t, "a", id)
}

func TestPrompter_AskEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Ask("? ")
	assert.Error(t, err)
}
