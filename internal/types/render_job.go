package types

type RenderJobStatus string

const (
	RenderJobPending    RenderJobStatus = "pending"
	RenderJobProcessing RenderJobStatus = "processing"
	RenderJobCompleted  RenderJobStatus = "completed"
	RenderJobFailed     RenderJobStatus = "failed"
)

// RenderJob is the persisted queue record of one render. Manifest holds the
// submitted JobManifest as JSON.
type RenderJob struct {
	Id          uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	JobId       string          `gorm:"column:job_id;uniqueIndex;size:64" json:"job_id"`
	Title       string          `gorm:"column:title" json:"title"`
	Status      RenderJobStatus `gorm:"column:status;index;size:16" json:"status"`
	StatusMsg   string          `gorm:"column:status_msg" json:"status_msg"`
	Attempts    int             `gorm:"column:attempts" json:"attempts"`
	MaxAttempts int             `gorm:"column:max_attempts" json:"max_attempts"`
	Manifest    string          `gorm:"column:manifest;type:text" json:"-"`
	OutputPath  string          `gorm:"column:output_path" json:"output_path,omitempty"`
	Duration    float64         `gorm:"column:duration" json:"duration,omitempty"`
	FailReason  string          `gorm:"column:fail_reason" json:"fail_reason,omitempty"`
	CreateTime  int64           `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime  int64           `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (RenderJob) TableName() string {
	return "render_jobs"
}

func (j RenderJob) CanRetry() bool {
	return j.Status == RenderJobFailed && (j.MaxAttempts <= 0 || j.Attempts < j.MaxAttempts)
}

// ManifestLine is one caption line of a manifest. Audio optionally points at
// a pre-recorded narration clip, skipping synthesis for that line.
type ManifestLine struct {
	Text  string `json:"text" yaml:"text"`
	Audio string `json:"audio,omitempty" yaml:"audio,omitempty"`
}

// JobManifest is what a caller submits: the script, the asset list and the
// per-job overrides of the configured render defaults. Pointer fields are
// optional overrides.
type JobManifest struct {
	Title             string         `json:"title" yaml:"title"`
	Lines             []ManifestLine `json:"lines" yaml:"lines"`
	Assets            []string       `json:"assets" yaml:"assets"`
	FixedLineDuration float64        `json:"fixed_line_duration,omitempty" yaml:"fixed_line_duration,omitempty"`
	Tts               *bool          `json:"tts,omitempty" yaml:"tts,omitempty"`
	Voice             string         `json:"voice,omitempty" yaml:"voice,omitempty"`

	CanvasPreset    string `json:"canvas_preset,omitempty" yaml:"canvas_preset,omitempty"`
	AllocationMode  string `json:"allocation_mode,omitempty" yaml:"allocation_mode,omitempty"`
	TitleArea       string `json:"title_area,omitempty" yaml:"title_area,omitempty"`
	CaptionStyle    string `json:"caption_style,omitempty" yaml:"caption_style,omitempty"`
	CaptionPosition string `json:"caption_position,omitempty" yaml:"caption_position,omitempty"`
	FontPath        string `json:"font_path,omitempty" yaml:"font_path,omitempty"`
	CrossDissolve   *bool  `json:"cross_dissolve,omitempty" yaml:"cross_dissolve,omitempty"`
	EnablePanning   *bool  `json:"enable_panning,omitempty" yaml:"enable_panning,omitempty"`
	PanningDisabled []int  `json:"panning_disabled,omitempty" yaml:"panning_disabled,omitempty"`
	MusicMood       string `json:"music_mood,omitempty" yaml:"music_mood,omitempty"`
	MusicPath       string `json:"music_path,omitempty" yaml:"music_path,omitempty"`
	Seed            int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
}
