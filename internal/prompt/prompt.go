// Package prompt assembles the single request sent to the model for one
// generate action.
package prompt

import (
	"github.com/dmorgan81/archprompt/internal/design"
	"google.golang.org/genai"
)

// SystemInstruction tells the model what to produce: one photorealistic,
// English image-generation prompt in a fixed shape.
const SystemInstruction = `
你是一位世界頂尖的建築視覺化專家。請將使用者的建築設計條件，轉化為一段「高品質、照片級真實」的英文圖像生成提示詞 (Prompt)。
輸出格式範例："A photorealistic eye-level shot of a [Scale] story building, [Style], located in [Location], [Weather], featuring [Entourage]. 8k resolution, architectural photography."
`

type Image struct {
	Data     []byte
	MIMEType string
}

// Request is built right before dispatch and consumed by exactly one call.
type Request struct {
	SystemInstruction string
	UserText          string
	Image             *Image
}

func Build(params design.Params) Request {
	req := Request{
		SystemInstruction: SystemInstruction,
		UserText:          params.Describe(),
	}
	if params.Image != nil {
		req.Image = &Image{Data: params.Image.Data, MIMEType: params.Image.MIMEType}
	}
	return req
}

// Parts orders the content as instruction, user text, then the optional image.
func (r Request) Parts() []*genai.Part {
	parts := []*genai.Part{
		{Text: r.SystemInstruction},
		{Text: r.UserText},
	}
	if r.Image != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: r.Image.MIMEType, Data: r.Image.Data},
		})
	}
	return parts
}
