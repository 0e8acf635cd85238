package httpdto

// DonationForm is the multipart body of POST /api/donations. The optional
// image travels in the "photo" part.
type DonationForm struct {
	Title        string  `form:"title" binding:"required"`
	Description  string  `form:"description"`
	Goal         float64 `form:"goal"`
	DonationLink string  `form:"donationLink"`
}

// DonationUpdateRequest is used for PUT /api/donations/:id
type DonationUpdateRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Goal         float64 `json:"goal"`
	DonationLink string  `json:"donationLink"`
}
