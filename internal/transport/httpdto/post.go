package httpdto

type PostForm struct {
	Title     string `form:"title" binding:"required"`
	ShortText string `form:"shortText"`
	Content   string `form:"content"`
}

type PostUpdateRequest struct {
	Title     string `json:"title" binding:"required"`
	ShortText string `json:"shortText"`
	Content   string `json:"content"`
}
