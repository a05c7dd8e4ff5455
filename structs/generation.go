package structs

type TextGenerationRequest struct {
	Prompt string `json:"prompt" binding:"required,max=4000"`
	Model  string `json:"model"`
}

type ImageGenerationRequest struct {
	Prompt string `json:"prompt" binding:"required,max=1000"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type AudioGenerationRequest struct {
	Prompt string `json:"prompt" binding:"required,max=1000"`
	Voice  string `json:"voice"`
}
