package dto

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
