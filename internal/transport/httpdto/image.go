package httpdto

// PresignRequest is used for POST /api/images/{reports|posts}/:id/presign
type PresignRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required"`
}

// ConfirmRequest is used once the client has PUT the file to the presigned URL.
type ConfirmRequest struct {
	Key    string `json:"key" binding:"required"`
	ETag   string `json:"etag"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

type URLResponse struct {
	URL string `json:"url"`
}
