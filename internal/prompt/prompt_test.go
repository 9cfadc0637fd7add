package prompt

import (
	"testing"

	"github.com/dmorgan81/archprompt/internal/design"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWithoutImage(t *testing.T) {
	req := Build(design.Defaults())

	assert.Equal(t, SystemInstruction, req.SystemInstruction)
	assert.Equal(t, "風格: 現代極簡, 樓層: 5, 位置: 台北市繁忙街頭, 天氣: 晴朗午後", req.UserText)
	assert.Nil(t, req.Image)

	parts := req.Parts()
	require.Len(t, parts, 2)
	assert.Equal(t, SystemInstruction, parts[0].Text)
	assert.Equal(t, req.UserText, parts[1].Text)
	assert.Nil(t, parts[1].InlineData)
}

func TestBuildWithImage(t *testing.T) {
	params := design.Defaults()
	params.Image = &design.Image{Name: "site.jpg", Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"}

	parts := Build(params).Parts()
	require.Len(t, parts, 3)
	assert.Equal(t, SystemInstruction, parts[0].Text)
	assert.Equal(t, params.Describe(), parts[1].Text)
	require.NotNil(t, parts[2].InlineData)
	assert.Equal(t, "image/jpeg", parts[2].InlineData.MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, parts[2].InlineData.Data)
	assert.Empty(t, parts[2].Text)
}

func TestSystemInstructionTemplate(t *testing.T) {
	assert.Contains(t, SystemInstruction, "A photorealistic eye-level shot of a [Scale] story building")
	assert.Contains(t, SystemInstruction, "8k resolution, architectural photography.")
}
