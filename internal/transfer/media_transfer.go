package transfer

type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

type GenerateTextResponse struct {
	GeneratedText string `json:"generated_text"`
}

type PresignRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expires_in"`
}
