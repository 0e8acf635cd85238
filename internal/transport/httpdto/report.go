package httpdto

// ReportForm is the multipart body for creating a report. Photos travel in
// repeated "photos" parts. DonationID is ignored on the nested
// /donations/:id/reports route.
type ReportForm struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
	Category    string `form:"category"`
	DonationID  uint   `form:"donationId"`
}

type ReportUpdateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DonationID  uint   `json:"donationId" binding:"required"`
}
