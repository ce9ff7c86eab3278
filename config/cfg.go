package config

import "time"

type AppConfig struct {
	Worker            WorkerConfig `json:"worker"`
	Queue             QueueConfig  `json:"queue"`
	Page              PageConfig   `json:"page"`
	RequestsQueue     string       `json:"requests_queue"`
	S3Bucket          string       `json:"s3_bucket"`
	AttemptsTable     string       `json:"attempts_table"`
	MaxRenderAttempts int          `json:"max_render_attempts"`
}

type WorkerConfig struct {
	Count    int           `json:"count"`
	Interval time.Duration `json:"interval"`
}

type QueueConfig struct {
	QueueName         string `json:"queue_name"`
	PollingWaitTime   int64  `json:"polling_wait_time"`
	VisibilityTimeout int64  `json:"visibility_timeout"`
}

// PageConfig describes the page geometry of the rendered paper. Lengths are in
// twips (twentieths of a point), the native unit of OOXML section properties.
type PageConfig struct {
	PageWidth    int    `json:"page_width"`
	PageHeight   int    `json:"page_height"`
	MarginTop    int    `json:"margin_top"`
	MarginRight  int    `json:"margin_right"`
	MarginBottom int    `json:"margin_bottom"`
	MarginLeft   int    `json:"margin_left"`
	ColumnGap    int    `json:"column_gap"`
	BaseFont     string `json:"base_font"`
	BaseSize     int    `json:"base_size"` // half-points
}

// DefaultPage is US Letter with 0.75" side margins, 1" top/bottom margins and a
// 0.5" gap between body columns, Times New Roman 10pt base font.
func DefaultPage() PageConfig {
	return PageConfig{
		PageWidth:    12240,
		PageHeight:   15840,
		MarginTop:    1440,
		MarginRight:  1080,
		MarginBottom: 1440,
		MarginLeft:   1080,
		ColumnGap:    720,
		BaseFont:     "Times New Roman",
		BaseSize:     20,
	}
}
