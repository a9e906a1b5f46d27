package transfer

type ScheduleCreation struct {
	ContentID *int64   `json:"content_id"`
	Caption   string   `json:"caption"`
	Title     string   `json:"title"`
	ImageURL  string   `json:"image_url"`
	VideoURL  string   `json:"video_url"`
	Platforms []string `json:"platforms"`
	RunAt     string   `json:"run_at"`
	Timezone  string   `json:"timezone"`
}

type ContentCreation struct {
	Title        string   `json:"title"`
	Caption      string   `json:"caption"`
	CallToAction string   `json:"call_to_action"`
	Hashtags     []string `json:"hashtags"`
	ImageURL     string   `json:"image_url"`
	VideoURL     string   `json:"video_url"`
}
