package api

type RateRequest struct {
	SchoolboyId int    `json:"SchoolboyId"`
	ColumnId    int    `json:"ColumnId"`
	Title       string `json:"Title"`
}

type UnRateRequest struct {
	SchoolboyId int `json:"SchoolboyId"`
	ColumnId    int `json:"ColumnId"`
}

// UnRateResponse is an empty object on success.
type UnRateResponse struct{}
